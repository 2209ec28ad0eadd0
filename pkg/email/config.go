package email

// Config holds outbound email configuration.
// Postmark tokens are optional so development environments can run with
// DevSender instead. SenderEmail and SupportEmail establish the sender
// identity and reply-to behavior for every outgoing message.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	AppName              string `env:"EMAIL_APP_NAME" envDefault:"Notifications"`
}
