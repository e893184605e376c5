package chat

// Topic identifies which canned reply the dispatcher selected.
type Topic string

const (
	TopicSellProcess  Topic = "sell_process"
	TopicLicenseTypes Topic = "license_types"
	TopicValuation    Topic = "valuation"
	TopicPayment      Topic = "payment"
	TopicTimeline     Topic = "timeline"
	TopicLegal        Topic = "legal"
	TopicSupport      Topic = "support"
	TopicGreeting     Topic = "greeting"
	TopicFallback     Topic = "fallback"
)

// Greeting seeds every new transcript.
const Greeting = "👋 Hi there! I'm the SoftSell AI assistant. How can I help you with selling your software licenses today?"

// Catalog holds the canned reply text for each topic.
type Catalog map[Topic]string

// DefaultCatalog returns the stock reply texts.
func DefaultCatalog() Catalog {
	return Catalog{
		TopicSellProcess: "To sell your license, follow these simple steps:\n\n" +
			"1️⃣ Submit your license details through our secure portal\n" +
			"2️⃣ Receive a valuation within 24 hours\n" +
			"3️⃣ Accept our offer and get paid within 2-3 business days\n\n" +
			"You can start by clicking the 'Get a Quote' button at the top of our page!",
		TopicLicenseTypes: "We purchase a wide range of software licenses, including:\n\n" +
			"• Microsoft (Office, Windows, Server)\n" +
			"• Adobe Creative Suite\n" +
			"• Autodesk products\n" +
			"• Oracle licenses\n" +
			"• SAP licenses\n" +
			"• VMware and other virtualization software\n\n" +
			"If your license isn't listed here, please ask and I'll check if we can purchase it!",
		TopicValuation: "License values vary based on several factors:\n\n" +
			"• Software type and version\n" +
			"• Remaining validity period\n" +
			"• Current market demand\n" +
			"• Number of licenses\n\n" +
			"After submitting your license details, we'll provide a competitive quote based on current market rates. " +
			"We typically offer 40-70% of the original purchase price, which is industry-leading!",
		TopicPayment: "We offer multiple secure payment methods:\n\n" +
			"• Direct bank transfer\n" +
			"• PayPal\n" +
			"• Cryptocurrency (Bitcoin, Ethereum)\n" +
			"• Wire transfer for international clients\n\n" +
			"Once you accept our offer, payment is typically processed within 2-3 business days. " +
			"We pride ourselves on prompt, reliable payments!",
		TopicTimeline: "Our process is designed to be quick and efficient:\n\n" +
			"• Initial valuation: Within 24 hours of submission\n" +
			"• Verification process: 1-2 business days\n" +
			"• Payment processing: 2-3 business days after acceptance\n\n" +
			"From start to finish, most transactions are completed within one week!",
		TopicLegal: "Yes, reselling unused software licenses is completely legal and compliant with most software licensing agreements. " +
			"We ensure all transactions follow:\n\n" +
			"• Software vendor transfer policies\n" +
			"• Regional licensing regulations\n" +
			"• Proper documentation and transfer procedures\n\n" +
			"Our legal team verifies every transaction to ensure compliance and protect both buyers and sellers.",
		TopicSupport: "Our support team is available Monday-Friday, 9am-6pm EST. You can:\n\n" +
			"• Email us at support@softsell.com\n" +
			"• Call us at (555) 123-4567\n" +
			"• Fill out the contact form on this page\n\n" +
			"A team member will get back to you within 1 business day.",
		TopicGreeting: "Hello there! 👋 Welcome to SoftSell. I'm your virtual assistant here to help with any questions " +
			"about selling your software licenses. What would you like to know today?",
		TopicFallback: "Thanks for your message! I'm not sure I understand your question completely. " +
			"Could you try rephrasing, or select one of the suggested questions below? " +
			"Alternatively, you can fill out our contact form and our team will get back to you promptly!",
	}
}

// Merge returns a copy of c with every non-empty override applied.
// Unknown topics in overrides are ignored.
func (c Catalog) Merge(overrides map[Topic]string) Catalog {
	out := make(Catalog, len(c))
	for topic, text := range c {
		out[topic] = text
	}
	for topic, text := range overrides {
		if _, known := c[topic]; !known || text == "" {
			continue
		}
		out[topic] = text
	}
	return out
}

// Topics lists every topic in dispatch priority order, fallback last.
func Topics() []Topic {
	return []Topic{
		TopicSellProcess,
		TopicLicenseTypes,
		TopicValuation,
		TopicPayment,
		TopicTimeline,
		TopicLegal,
		TopicSupport,
		TopicGreeting,
		TopicFallback,
	}
}
