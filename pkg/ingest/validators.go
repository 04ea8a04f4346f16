package ingest

// CatalogSubmission is a book handed over by the search-engine provider.
// Missing fields are reported by the pipeline, not the binder, so that all of
// them are listed at once.
type CatalogSubmission struct {
	GID         string         `json:"gId" mod:"trim"`
	GTag        string         `json:"gTag" mod:"trim"`
	Title       string         `json:"title" mod:"trim"`
	Description string         `json:"description" mod:"trim"`
	AmazonLink  string         `json:"amazon_link" mod:"trim"`
	ISBN10      string         `json:"isbn10" mod:"trim"`
	ISBN13      string         `json:"isbn13" mod:"trim"`
	Authors     []NameInput    `json:"authors" mod:"dive"`
	Topics      []CatalogTopic `json:"topics" mod:"dive"`
	Pictures    []PictureInput `json:"pictures" mod:"dive"`
}

type NameInput struct {
	Name string `json:"name" mod:"trim"`
}

type CatalogTopic struct {
	Topic NameInput `json:"topic"`
}

type PictureInput struct {
	Link string `json:"link" mod:"trim"`
}

func (s *CatalogSubmission) authorNames() []string {
	names := make([]string, 0, len(s.Authors))
	for _, a := range s.Authors {
		names = append(names, a.Name)
	}
	return names
}

func (s *CatalogSubmission) topicNames() []string {
	names := make([]string, 0, len(s.Topics))
	for _, t := range s.Topics {
		names = append(names, t.Topic.Name)
	}
	return names
}

func (s *CatalogSubmission) pictureLinks() []string {
	links := make([]string, 0, len(s.Pictures))
	for _, p := range s.Pictures {
		if p.Link != "" {
			links = append(links, p.Link)
		}
	}
	return links
}

// ManualSubmission is a book entered by a signed-in user from a purchase
// link. The pipeline checks presence first and link shape second.
type ManualSubmission struct {
	Title      string     `json:"title" mod:"trim"`
	Writer     *WriterRef `json:"writer"`
	Topics     []TopicRef `json:"topics"`
	ISBN       string     `json:"isbn" mod:"trim"`
	AmazonLink string     `json:"amazon_link" mod:"trim"`
}

// WriterRef points at an existing author by ID, or names a new one.
type WriterRef struct {
	ID   int    `json:"id"`
	Name string `json:"name" mod:"trim"`
}

type TopicRef struct {
	ID int `json:"_id"`
}

func (w *WriterRef) empty() bool {
	return w == nil || (w.ID == 0 && w.Name == "")
}

func (s *ManualSubmission) topicIDs() []int {
	ids := make([]int, 0, len(s.Topics))
	for _, t := range s.Topics {
		ids = append(ids, t.ID)
	}
	return ids
}
