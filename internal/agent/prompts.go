package agent

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// 各步骤的提示词模板。
// 决策类提示词里有大量 JSON 示例，统一用 Jinja2 语法避免花括号转义。

// triageSystemPrompt 要求模型只输出结构化 JSON 决策。
const triageSystemPrompt = `You are the triage step of a customer support system for TechGear Electronics.

Analyze the customer query and produce a routing decision.

Intent categories: order_status, product_inquiry, refund_request, complaint, account_issue, general_inquiry.
Routes:
- "knowledge": questions answerable from policies, FAQs, or the product catalog
- "action": the customer wants something done (cancel, refund, modify, update, reset)
- "escalation": legal threats, fraud or security issues, or explicit requests for a human

Respond with ONLY a JSON object in this exact format:
{"route_to": "knowledge|action|escalation", "intent": "...", "urgency": "low|medium|high", "sentiment": "positive|neutral|negative", "reasoning": "one short sentence", "confidence": 0.0, "entities": {"order_id": "...", "customer_id": "..."}}

Omit entity keys you cannot find. Do not add any text outside the JSON object.`

func triageTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.Jinja2,
		schema.SystemMessage(triageSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("Customer query: {{ query }}"),
	)
}

// knowledgeSystemPrompt 注入检索上下文与公司政策，生成面向客户的回答。
const knowledgeSystemPrompt = `You are a knowledgeable and friendly customer support agent for TechGear Electronics.

Answer the customer's question using ONLY the information below. If the information does not cover the question, say so honestly and point the customer to support instead of inventing details.

{{ policies }}

{{ context }}

Matching products:
{{ products }}

Keep the answer concise, warm, and directly useful.`

func knowledgeTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.Jinja2,
		schema.SystemMessage(knowledgeSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{{ query }}"),
	)
}

// actionSystemPrompt 要求模型从固定动作表中选择一个动作并输出 JSON。
const actionSystemPrompt = `You are the action step of a customer support system for TechGear Electronics.

Decide which single backend action resolves the customer's request.

Available actions:
- check_order_status(order_id)
- cancel_order(order_id, reason)
- modify_order(order_id, new_address)
- initiate_refund(order_id, reason)
- check_refund_status(refund_id)
- update_address(customer_id, new_address)
- reset_password(customer_id)
- get_account_info(customer_id)

Known entities: {{ entities }}

Respond with ONLY a JSON object:
{"action": "action_name", "params": {"order_id": "..."}, "response": "what you will tell the customer"}

If a required parameter is missing and not in the known entities, use action "ask_customer" and put the clarifying question in "response". Never invent order numbers or customer IDs.`

func actionTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.Jinja2,
		schema.SystemMessage(actionSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("Customer request: {{ query }}"),
	)
}

// followupSystemPrompt 决定是否需要跟进并生成跟进话术。
const followupSystemPrompt = `You are the follow-up step of a customer support system for TechGear Electronics. Decide if a follow-up message is needed.

Rules:
- needs_followup=true: only for completed actions (refunds, cancellations, account changes) or clearly frustrated customers
- needs_followup=false: for simple info queries, product questions, policy answers

How the query was resolved:
{{ summary }}

Respond with ONLY a JSON object: {"needs_followup": true|false, "message": "short follow-up or empty string"}`

func followupTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.Jinja2,
		schema.SystemMessage(followupSystemPrompt),
		schema.UserMessage("Customer query was: {{ query }}"),
	)
}

// escalationSystemPrompt 生成移交人工前的安抚与摘要。
const escalationSystemPrompt = `You are the escalation step of a customer support system for TechGear Electronics.

The conversation is being transferred to a human agent. Write a brief internal summary for the human agent covering: the customer's issue, sentiment, anything already attempted, and the reason for escalation.

Escalation reason: {{ reason }}
Intent: {{ intent }}
Sentiment: {{ sentiment }}`

func escalationTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.Jinja2,
		schema.SystemMessage(escalationSystemPrompt),
		schema.UserMessage("Customer query was: {{ query }}"),
	)
}

// escalationCustomerMessage 为移交人工时发给客户的固定话术，不依赖 LLM。
const escalationCustomerMessage = `I understand this needs special attention. I'm transferring you to one of our human support specialists who can better assist you. Your case details have been shared with them, and they will be with you shortly. Thank you for your patience.`

// baselineSystemPrompt 为单步基线：一个提示词完成分诊、解答与动作描述。
const baselineSystemPrompt = `You are the single support agent for TechGear Electronics. Handle the customer query end to end.

{{ policies }}

Knowledge base:
{{ context }}

If the customer wants an action performed (cancel, refund, modify, update, reset), include a line in this exact format at the end of your reply:
ACTION: action_name(param1=value1, param2=value2)
where action_name is one of: check_order_status, cancel_order, modify_order, initiate_refund, check_refund_status, update_address, reset_password, get_account_info.

Otherwise just answer the question directly.`

func baselineTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.Jinja2,
		schema.SystemMessage(baselineSystemPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{{ query }}"),
	)
}
