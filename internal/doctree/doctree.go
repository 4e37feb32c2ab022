package doctree

// Bookmark is one outline entry as read from the PDF, flattened in pre-order.
type Bookmark struct {
	Level int    `json:"level"` // Outline depth, 1 for top-level entries
	Title string `json:"title"` // Raw label, e.g. "6.4.2 Source Capabilities"
	Page  int    `json:"page"`  // 1-based destination page
}

// TOCEntry is one heading of the specification. It is one line of the TOC file.
type TOCEntry struct {
	DocTitle  string  `json:"doc_title"`
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Page      int     `json:"page"`
	Level     int     `json:"level"`
	ParentID  *string `json:"parent_id"`
	FullPath  string  `json:"full_path"`
}

// Parent returns the parent section id, or "" at the top level.
func (e TOCEntry) Parent() string {
	if e.ParentID == nil {
		return ""
	}
	return *e.ParentID
}

// ImageInfo describes an image found on a page. Pixel data is never carried.
type ImageInfo struct {
	Page       int    `json:"page"`
	Index      int    `json:"index"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Colorspace string `json:"colorspace"`
}

// TableInfo describes a table-like block of text found on a page.
type TableInfo struct {
	Page  int        `json:"page"`
	Index int        `json:"index"`
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Data  [][]string `json:"data"` // First few rows only
}

// ContentEntry is the extracted content of one TOC entry. It is one line of the content file.
type ContentEntry struct {
	DocTitle    string      `json:"doc_title"`
	SectionID   string      `json:"section_id"`
	Title       string      `json:"title"`
	PageRange   string      `json:"page_range"`
	Content     string      `json:"content"`
	ContentType string      `json:"content_type"`
	HasContent  bool        `json:"has_content"`
	WordCount   int         `json:"word_count"`
	Images      []ImageInfo `json:"images"`
	Tables      []TableInfo `json:"tables"`
}

// DocTree is the nested view of a filtered TOC.
type DocTree struct {
	Title    string     `json:"title"`
	Children []*DocNode `json:"children"`
}

// DocNode is a section with its subsections.
type DocNode struct {
	SectionID string     `json:"section_id"`
	Title     string     `json:"title"`
	Page      int        `json:"page"`
	Level     int        `json:"level"`
	Children  []*DocNode `json:"children,omitempty"`
}

// BuildTree nests entries under their parent_id. Entries whose parent is not
// in the list become roots, so a dangling reference never drops a section.
func BuildTree(title string, entries []TOCEntry) *DocTree {
	tree := &DocTree{Title: title, Children: []*DocNode{}}
	nodes := make(map[string]*DocNode, len(entries))

	for _, e := range entries {
		node := &DocNode{
			SectionID: e.SectionID,
			Title:     e.Title,
			Page:      e.Page,
			Level:     e.Level,
		}
		if e.SectionID != "" {
			nodes[e.SectionID] = node
		}
		if parent, ok := nodes[e.Parent()]; ok && e.Parent() != "" {
			parent.Children = append(parent.Children, node)
			continue
		}
		tree.Children = append(tree.Children, node)
	}
	return tree
}
