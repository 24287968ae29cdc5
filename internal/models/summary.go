package models

// EntryKind mirrors the GitHub tree object type.
type EntryKind string

const (
	KindBlob EntryKind = "blob"
	KindTree EntryKind = "tree"
)

// TreeEntry is one item of a recursive repository tree listing.
type TreeEntry struct {
	Path string    `json:"path"`
	Kind EntryKind `json:"type"`
	Size int64     `json:"size"`
}

// SummaryResult is the response contract of /summarize.
type SummaryResult struct {
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
}

// Report describes one completed pipeline run.
type Report struct {
	Owner        string        `json:"owner"`
	Repo         string        `json:"repo"`
	Branch       string        `json:"branch"`
	Files        []string      `json:"files"` // paths whose content made it into the model context
	ContextChars int           `json:"context_chars"`
	Summary      SummaryResult `json:"summary"`
}

// FullName returns "owner/repo".
func (r *Report) FullName() string {
	return r.Owner + "/" + r.Repo
}

func (r *Report) URL() string {
	return "https://github.com/" + r.FullName()
}

// ArchivedSummary is a stored report as read back from the archive.
type ArchivedSummary struct {
	FullName     string   `json:"full_name"`
	URL          string   `json:"url"`
	Branch       string   `json:"branch"`
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Structure    string   `json:"structure"`
	Files        []string `json:"files"`
	ContextChars int      `json:"context_chars"`
	SummarizedAt string   `json:"summarized_at"`
}

type SearchResult struct {
	FullName     string   `json:"full_name"`
	URL          string   `json:"url"`
	Summary      string   `json:"summary"`
	Technologies []string `json:"technologies"`
	Score        float64  `json:"score"`
}
