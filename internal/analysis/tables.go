// internal/analysis/tables.go
package analysis

import "cx-agent-builder/internal/models"

// Lookup tables are ordered slices: earlier entries win ties. They are
// package-level and never written after init.

type keywordRule struct {
	key      string
	keywords []string
}

const DefaultDomain = "general_support"

var domainRules = []keywordRule{
	{"healthcare", []string{"appointment", "doctor", "clinic", "hospital", "patient", "medical", "health", "therapy"}},
	{"e-commerce", []string{"order", "product", "shipping", "cart", "purchase", "delivery", "shop", "store", "buy"}},
	{"finance", []string{"account", "balance", "transaction", "payment", "loan", "bank", "card", "credit"}},
	{"travel", []string{"flight", "hotel", "booking", "reservation", "travel", "trip", "airline"}},
	{"telecommunications", []string{"plan", "data", "mobile", "phone bill", "sim", "network", "roaming"}},
	{"food_delivery", []string{"food", "restaurant", "delivery", "menu", "order food", "meal"}},
	{"insurance", []string{"claim", "policy", "insurance", "coverage", "premium"}},
	{"education", []string{"course", "class", "enrollment", "student", "tutor", "training"}},
	{"real_estate", []string{"property", "rent", "lease", "apartment", "house", "real estate"}},
	{"automotive", []string{"car", "vehicle", "service", "repair", "maintenance", "dealership"}},
}

const GreetingTaskName = "Greeting"

var greetingTask = models.Task{
	TaskName:    GreetingTaskName,
	Description: "Greet the caller and introduce the service",
}

type taskRule struct {
	key      string
	keywords []string
	task     models.Task
}

var taskRules = []taskRule{
	{"collect_name", []string{"take name", "ask name", "collect name", "get name", "ask for name"}, models.Task{
		TaskName:      "Collect Customer Name",
		Description:   "Collect the caller's name for personalization",
		DataToCollect: []string{"customer_name"},
	}},
	{"collect_email", []string{"email", "e-mail", "mail address"}, models.Task{
		TaskName:      "Collect Email",
		Description:   "Collect the caller's email address",
		DataToCollect: []string{"email"},
	}},
	{"collect_phone", []string{"phone number", "mobile number", "contact number"}, models.Task{
		TaskName:      "Collect Phone Number",
		Description:   "Collect the caller's phone number",
		DataToCollect: []string{"phone_number"},
	}},
	{"appointment", []string{"appointment", "schedule", "book", "booking", "slot"}, appointmentTask},
	{"order_status", []string{"order status", "track order", "where is my order", "order tracking"}, orderStatusTask},
	{"account_inquiry", []string{"account", "balance", "statement"}, accountInquiryTask},
	{"complaint", []string{"complaint", "issue", "problem", "wrong"}, models.Task{
		TaskName:       "File Complaint",
		Description:    "Record and process a customer complaint",
		DataToCollect:  []string{"customer_name", "issue_description"},
		RequiresAPI:    true,
		APIDescription: "Submit a customer complaint ticket",
	}},
	{"cancel", []string{"cancel", "cancellation", "refund"}, models.Task{
		TaskName:       "Cancellation Processing",
		Description:    "Process a cancellation or refund request",
		DataToCollect:  []string{"order_number", "cancellation_reason"},
		RequiresAPI:    true,
		APIDescription: "Process cancellation and initiate refund",
	}},
	{"confirm", []string{"confirm", "verify", "availability", "available"}, models.Task{
		TaskName:       "Confirm Availability",
		Description:    "Confirm availability via external system",
		RequiresAPI:    true,
		APIDescription: "Verify availability through the backend API",
	}},
	{"faq", []string{"faq", "question", "information", "info", "help"}, models.Task{
		TaskName:    "FAQ & Information",
		Description: "Answer frequently asked questions",
	}},
}

var (
	appointmentTask = models.Task{
		TaskName:       "Appointment Booking",
		Description:    "Book an appointment for the customer",
		DataToCollect:  []string{"customer_name", "preferred_date", "preferred_time"},
		RequiresAPI:    true,
		APIDescription: "Check available appointment slots and book an appointment",
	}
	orderStatusTask = models.Task{
		TaskName:       "Order Status Check",
		Description:    "Check the status of a customer's order",
		DataToCollect:  []string{"order_number"},
		RequiresAPI:    true,
		APIDescription: "Look up order status by order number",
	}
	accountInquiryTask = models.Task{
		TaskName:       "Account Inquiry",
		Description:    "Look up customer account information",
		DataToCollect:  []string{"account_number"},
		RequiresAPI:    true,
		APIDescription: "Retrieve account details and balance",
	}
	generalInquiryTask = models.Task{
		TaskName:      "General Inquiry",
		Description:   "Handle general customer inquiries",
		DataToCollect: []string{"customer_name", "inquiry_details"},
	}
)

type domainDefaults struct {
	domain string
	tasks  []models.Task
}

// Domains not listed here fall back to generalInquiryTask.
var domainDefaultTasks = []domainDefaults{
	{"healthcare", []models.Task{appointmentTask}},
	{"e-commerce", []models.Task{orderStatusTask}},
	{"finance", []models.Task{accountInquiryTask}},
}

const CollectInfoTaskName = "Collect Customer Information"

var slotRules = []keywordRule{
	{"customer_name", []string{"name", "first name", "last name", "full name", "caller name", "user name"}},
	{"email", []string{"email", "e-mail", "email address", "mail"}},
	{"phone_number", []string{"phone", "phone number", "mobile", "contact number", "cell"}},
	{"preferred_date", []string{"date", "day", "when", "preferred date", "appointment date"}},
	{"preferred_time", []string{"time", "preferred time", "appointment time", "what time"}},
	{"address", []string{"address", "location", "where"}},
	{"service_type", []string{"service", "service type", "type of service"}},
	{"reason", []string{"reason", "purpose", "why"}},
	{"order_number", []string{"order number", "order id", "order #"}},
	{"account_number", []string{"account number", "account id", "account #"}},
	{"issue_description", []string{"issue", "problem", "complaint", "describe"}},
	{"age", []string{"age", "how old"}},
	{"dob", []string{"date of birth", "dob", "birthday"}},
	{"insurance_id", []string{"insurance", "insurance id", "policy number"}},
	{"company_name", []string{"company", "organization", "business name"}},
}

type stringPair struct {
	key   string
	value string
}

func lookup(pairs []stringPair, key string) (string, bool) {
	for _, p := range pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Keys are task names after TaskKey.
var taskFunctionNames = []stringPair{
	{"appointment_booking", "get_appointment_slots"},
	{"order_status_check", "get_order_status"},
	{"account_inquiry", "get_account_info"},
	{"file_complaint", "submit_complaint"},
	{"cancellation_processing", "process_cancellation"},
	{"confirm_availability", "check_availability"},
	{"general_inquiry", "search_knowledge_base"},
}

const DefaultExpectedOutput = "JSON response with operation result"

var functionOutputs = []stringPair{
	{"get_appointment_slots", "List of available appointment slots with dates and times"},
	{"book_appointment", "Booking confirmation with confirmation code"},
	{"get_order_status", "Order status including tracking info and estimated delivery"},
	{"get_account_info", "Account details including balance and recent activity"},
	{"submit_complaint", "Complaint ticket ID and status"},
	{"process_cancellation", "Cancellation confirmation and refund details"},
	{"check_availability", "Availability status with available options"},
	{"search_knowledge_base", "Relevant FAQ entries or knowledge base articles"},
}

const DefaultAgentName = "Ava"

var agentNames = []stringPair{
	{"healthcare", "MediBot"},
	{"e-commerce", "ShopAssist"},
	{"finance", "FinanceHelper"},
	{"travel", "TravelBuddy"},
	{"telecommunications", "TeleConnect"},
	{"food_delivery", "FoodieBot"},
	{"insurance", "InsureGuide"},
	{"education", "EduAssist"},
	{"real_estate", "PropertyPal"},
	{"automotive", "AutoCare"},
	{"general_support", "Ava"},
}

const DefaultDomainRole = "Customer Support Agent"

var domainRoles = []stringPair{
	{"healthcare", "Appointment & Patient Support Agent"},
	{"e-commerce", "Order & Shopping Support Agent"},
	{"finance", "Account & Financial Support Agent"},
	{"travel", "Booking & Travel Support Agent"},
	{"telecommunications", "Service & Billing Support Agent"},
	{"food_delivery", "Order & Delivery Support Agent"},
	{"insurance", "Claims & Policy Support Agent"},
	{"education", "Enrollment & Course Support Agent"},
	{"real_estate", "Property & Leasing Support Agent"},
	{"automotive", "Service & Repair Support Agent"},
	{"general_support", "Customer Support Agent"},
}
