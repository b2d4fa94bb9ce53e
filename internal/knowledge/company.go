package knowledge

import "strings"

// CompanyPolicies 为提示词中使用的核心政策摘要，处理步骤把它直接注入系统提示。
const CompanyPolicies = `TechGear Electronics policies:
- Orders can be cancelled only if they have not shipped yet
- Refunds are processed in 5-7 business days
- Orders cannot be modified after shipping
- Returns are accepted within 30 days of delivery
- Standard shipping is free on orders over $50
- All products include a 2-year warranty
- Customer support: 1-800-TECHGEAR (1-800-832-4432), support@techgear.com`

// companyTopics 为按主题组织的公司信息，供 company_info 查询使用。
var companyTopics = map[string]string{
	"general": `TechGear Electronics - Technology that works for you.
Founded in 2015, headquartered in Austin, TX. We sell laptops, phones, audio gear, and smart home devices backed by a 2-year warranty and responsive support.`,

	"contact": `Contact TechGear Electronics:
Phone: 1-800-TECHGEAR (1-800-832-4432), Monday-Friday 8am-8pm EST
Email: support@techgear.com, replies within 1 business day
Live Chat: available 24/7 on www.techgear.com`,

	"shipping": `TechGear shipping:
Free standard shipping on orders over $50.
Standard (5-7 days): $5.99. Express (2-3 days): $14.99. Overnight: $29.99.
Premium members get free 2-day shipping on all orders. International shipping to 40+ countries.`,

	"returns": `TechGear return policy:
Returns accepted within 30 days of delivery in original condition with all packaging.
No restocking fee. Premium members have a 45-day window. Opened software and gift cards are final sale.`,

	"warranty": `TechGear warranty:
Standard 2-year warranty on all products covering manufacturing defects.
Extended 3-year coverage available at purchase. Claims are handled by support with a proof of purchase.`,

	"payment": `TechGear payment methods:
Visa, Mastercard, American Express, PayPal, Apple Pay, and Google Pay.
All payments processed over encrypted connections. Payment plans available on orders over $200.`,
}

// CompanyInfo 返回指定主题的公司信息；未知主题返回可用主题列表。
func CompanyInfo(topic string) string {
	if topic == "" {
		topic = "general"
	}
	if info, ok := companyTopics[strings.ToLower(topic)]; ok {
		return info
	}
	return "Please specify info type: general, contact, shipping, returns, warranty, or payment."
}
