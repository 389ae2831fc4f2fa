package source

import "strings"

// Record is one note reconstructed from the source stream.
// Dates are kept as emitted by the source; the pipeline parses them.
type Record struct {
	ID         string
	Title      string
	FolderID   string
	FolderName string
	Created    string
	Updated    string
	Body       string
	// Extra holds metadata keys the parser does not know about.
	Extra map[string]string
}

// recordBuilder accumulates the fields of the record under construction.
// It is only validated when the record is finalized.
type recordBuilder struct {
	fields map[string]string
	body   []string
}

func newRecordBuilder() *recordBuilder {
	return &recordBuilder{fields: make(map[string]string)}
}

func (b *recordBuilder) set(key, value string) {
	b.fields[key] = value
}

func (b *recordBuilder) appendBody(line string) {
	b.body = append(b.body, line)
}

func (b *recordBuilder) hasID() bool {
	return b.fields["id"] != ""
}

// build returns the record, or false when no id was captured.
func (b *recordBuilder) build() (Record, bool) {
	if !b.hasID() {
		return Record{}, false
	}

	rec := Record{Body: strings.Join(b.body, "\n")}
	for key, value := range b.fields {
		switch key {
		case "id":
			rec.ID = value
		case "title":
			rec.Title = value
		case "folderId":
			rec.FolderID = value
		case "folderName":
			rec.FolderName = value
		case "created":
			rec.Created = value
		case "updated":
			rec.Updated = value
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[key] = value
		}
	}
	return rec, true
}
