package e621

// File holds the downloadable payload information of a post.
type File struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int64  `json:"size"`
	MD5    string `json:"md5"`
	URL    string `json:"url"`
}

// Post is a single downloadable content item. Immutable once fetched.
type Post struct {
	ID    int    `json:"id"`
	File  File   `json:"file"`
	Pools []int  `json:"pools"`
	Tags  Tags   `json:"tags"`
	Flags Flags  `json:"flags"`
	Score Score  `json:"score"`
}

// Tags groups the tag categories the service reports for a post.
type Tags struct {
	General []string `json:"general"`
	Artist  []string `json:"artist"`
	Species []string `json:"species"`
	Meta    []string `json:"meta"`
}

// Flags holds post state flags.
type Flags struct {
	Pending bool `json:"pending"`
	Deleted bool `json:"deleted"`
}

// Score holds the vote tally of a post.
type Score struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

// Pool is a named, ordered collection of posts. PostIDs order is
// semantically meaningful and must be preserved.
type Pool struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PostIDs     []int  `json:"post_ids"`
	PostCount   int    `json:"post_count"`
	IsActive    bool   `json:"is_active"`
}

// postResponse is the envelope returned by the single-post endpoint.
type postResponse struct {
	Post Post `json:"post"`
}

// postsResponse is the envelope returned by the search endpoint.
type postsResponse struct {
	Posts []Post `json:"posts"`
}
