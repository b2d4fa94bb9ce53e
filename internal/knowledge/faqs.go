package knowledge

// faqEntry 为内置 FAQ 库的一条问答。
type faqEntry struct {
	ID       int
	Intent   string
	Category string
	Question string
	Answer   string
}

// companyFAQs 为 TechGear Electronics 的内置知识库。
var companyFAQs = []faqEntry{
	{
		ID: 1, Intent: "order_status", Category: "orders",
		Question: "How do I track my order?",
		Answer:   "You can track your order using the tracking number sent to your email after shipping. Orders typically ship within 1 business day and arrive in 5-7 days with standard shipping.",
	},
	{
		ID: 2, Intent: "order_cancel", Category: "orders",
		Question: "Can I cancel my order?",
		Answer:   "Orders can be cancelled any time before they ship. Once an order has shipped it can no longer be cancelled, but you can refuse delivery or request a return after it arrives.",
	},
	{
		ID: 3, Intent: "order_modify", Category: "orders",
		Question: "Can I change the shipping address on my order?",
		Answer:   "The shipping address can be changed while the order is still processing. After the order ships, the address can no longer be modified.",
	},
	{
		ID: 4, Intent: "refund", Category: "refunds",
		Question: "How long do refunds take?",
		Answer:   "Refunds are processed within 5-7 business days after being initiated. The money is returned to your original payment method.",
	},
	{
		ID: 5, Intent: "refund", Category: "refunds",
		Question: "How do I request a refund?",
		Answer:   "You can request a refund for any eligible order through support. Cancelled orders are refunded automatically, and returned items are refunded once the return is received.",
	},
	{
		ID: 6, Intent: "returns", Category: "returns",
		Question: "What is your return policy?",
		Answer:   "We accept returns within 30 days of delivery. Items must be in original condition with all packaging. Premium members enjoy an extended 45-day return window.",
	},
	{
		ID: 7, Intent: "returns", Category: "returns",
		Question: "How do I return a damaged item?",
		Answer:   "We're sorry your item arrived damaged. Contact support with your order number and a photo of the damage, and we'll send a prepaid return label and process a replacement or refund.",
	},
	{
		ID: 8, Intent: "shipping", Category: "shipping",
		Question: "How much does shipping cost?",
		Answer:   "Standard shipping (5-7 days) is $5.99 and FREE on orders over $50. Express shipping (2-3 days) is $14.99 and overnight shipping is $29.99. Premium members get free 2-day shipping on all orders.",
	},
	{
		ID: 9, Intent: "shipping", Category: "shipping",
		Question: "Do you ship internationally?",
		Answer:   "Yes, we ship to over 40 countries. International shipping costs and delivery times vary by destination and are shown at checkout.",
	},
	{
		ID: 10, Intent: "warranty", Category: "warranty",
		Question: "What warranty do your products have?",
		Answer:   "All TechGear products include a standard 2-year warranty covering manufacturing defects. Extended 3-year coverage is available at purchase.",
	},
	{
		ID: 11, Intent: "account", Category: "account",
		Question: "How do I reset my password?",
		Answer:   "Click 'Forgot password' on the login page or ask support to send a reset link to the email on your account. The link expires after 24 hours.",
	},
	{
		ID: 12, Intent: "account", Category: "account",
		Question: "How do I update my account address?",
		Answer:   "You can update the default shipping address in your account settings or ask support to update it for you. The change applies to future orders only.",
	},
	{
		ID: 13, Intent: "payment", Category: "billing",
		Question: "What payment methods do you accept?",
		Answer:   "We accept Visa, Mastercard, American Express, PayPal, Apple Pay, and Google Pay. All payments are processed over encrypted connections. Payment plans are available on orders over $200.",
	},
	{
		ID: 14, Intent: "payment", Category: "billing",
		Question: "I was charged twice for my order, what should I do?",
		Answer:   "Duplicate charges are usually temporary authorization holds that drop off within 3-5 business days. If a duplicate charge settles, contact support with your order number and we'll reverse it immediately.",
	},
	{
		ID: 15, Intent: "contact", Category: "support",
		Question: "How do I contact customer support?",
		Answer:   "Call 1-800-TECHGEAR (1-800-832-4432) Monday-Friday 8am-8pm EST, email support@techgear.com, or use live chat on www.techgear.com available 24/7.",
	},
	{
		ID: 16, Intent: "complaint", Category: "support",
		Question: "How do I file a complaint?",
		Answer:   "We take complaints seriously. You can file a complaint with any support agent, by email to support@techgear.com, or by phone. Complaints are acknowledged within 1 business day.",
	},
}
