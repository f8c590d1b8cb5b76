package constants

// Static route constants
const (
	DownloadRoute       = "/download"
	PaddleWebhookRoute  = "/webhook/paddle"
	ThankYouStatusRoute = "/thankyou/status"
)
