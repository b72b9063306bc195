package common

const (
	PRIVATE_CREDENTIALS_DOTENV = ".env.private"
	DEFAULT_CONFIG_DIR         = ".config/"
	DEFAULT_CONFIG_FILE        = "config.json"

	DEFAULT_LISTEN_ADDR             = ":4000"
	DEFAULT_REDIS_ADDR              = "localhost:6379"
	DEFAULT_REDIS_PREFIX            = "gymstack:"
	DEFAULT_CURRENCY                = "INR"
	DEFAULT_GATEWAY                 = "cashfree"
	DEFAULT_REQUEST_TIMEOUT_SECONDS = 30

	// Cashfree API constants
	CASHFREE_SANDBOX_API_URL = "https://sandbox.cashfree.com/pg"
	CASHFREE_API_VERSION     = "2023-08-01"

	// Razorpay API constants
	RAZORPAY_API_BASE_URL = "https://api.razorpay.com"

	// SendGrid API constants
	SENDGRID_API_URL     = "https://api.sendgrid.com/v3/mail/send"
	DEFAULT_SENDER_EMAIL = "noreply@gymstack.app"

	// Flat 18% GST applied to invoice amounts
	INVOICE_TAX_RATE = 0.18
)

// ReservedSlugs are top-level path segments that never resolve to a gym.
var ReservedSlugs = []string{"register", "login", "about", "pricing", "contact"}
