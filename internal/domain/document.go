package domain

// Document is a single text document inside a book.
//
// WordCount always reflects the persisted Content: every write path that
// carries content runs through the word-count maintainer before reaching
// the store, so the two never drift.
type Document struct {
	Syncable
	Title      string `json:"title"`
	Content    string `json:"content"`
	BookID     string `json:"book_id"`
	OwnerID    string `json:"owner_id"`
	IsFavorite bool   `json:"is_favorite"`
	WordCount  int    `json:"word_count"`
}

// DocumentDraft carries the caller-supplied fields of a new document.
// WordCount is derived from Content before the draft reaches the store.
type DocumentDraft struct {
	Title     string `json:"title" validate:"required,notblank"`
	Content   string `json:"content"`
	BookID    string `json:"book_id" validate:"required"`
	WordCount int    `json:"word_count"`
}

// DocumentPatch is a partial update to a document. Nil fields are left
// untouched. A patch that sets Content must have WordCount set alongside it;
// the sync layer attaches it automatically.
type DocumentPatch struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	IsFavorite *bool   `json:"is_favorite,omitempty"`
	WordCount  *int    `json:"word_count,omitempty"`
}

// Apply merges the patch into the document.
func (p DocumentPatch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.IsFavorite != nil {
		d.IsFavorite = *p.IsFavorite
	}
	if p.WordCount != nil {
		d.WordCount = *p.WordCount
	}
}
