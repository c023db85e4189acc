package registry

// Repository is one repository row from the Docker Hub listing API.
type Repository struct {
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Description string `json:"description"`
	LastUpdated string `json:"last_updated"` // ISO string, may be empty
	PullCount   int64  `json:"pull_count"`
	StarCount   int    `json:"star_count"`
	IsPrivate   bool   `json:"is_private"`
}

// Tag is one tag row from the Docker Hub tag listing API.
type Tag struct {
	Name          string `json:"name"`
	LastUpdated   string `json:"last_updated"`
	TagLastPushed string `json:"tag_last_pushed"` // may be empty
	Digest        string `json:"digest"`
}

type repositoryPage struct {
	Count   int          `json:"count"`
	Results []Repository `json:"results"`
}

type tagPage struct {
	Results []Tag `json:"results"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
