package httpdto

type AttachmentURLResponse struct {
	URL string `json:"url"`
}
