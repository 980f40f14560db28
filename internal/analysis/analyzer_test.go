// internal/analysis/analyzer_test.go
package analysis

import (
	"testing"

	"cx-agent-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appointmentPrompt = "Create a support bot for appointment booking. It should greet, ask for name and date, and confirm availability via an API."

// ==========================
// Test Helper Functions
// ==========================

func taskNames(tasks []models.Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.TaskName
	}
	return names
}

func findTask(t *testing.T, tasks []models.Task, name string) models.Task {
	t.Helper()
	for _, task := range tasks {
		if task.TaskName == name {
			return task
		}
	}
	require.Failf(t, "task not found", "%s not in %v", name, taskNames(tasks))
	return models.Task{}
}

// ==========================
// Classifier Tests
// ==========================

func TestDetectDomain(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		domain string
	}{
		{name: "healthcare", text: "Book a doctor visit", domain: "healthcare"},
		{name: "case insensitive", text: "HOSPITAL front desk", domain: "healthcare"},
		{name: "e-commerce", text: "Track shipping for customers", domain: "e-commerce"},
		{name: "first match wins", text: "Check order and account balance", domain: "e-commerce"},
		{name: "finance", text: "Help with a loan", domain: "finance"},
		{name: "travel", text: "Flight changes", domain: "travel"},
		{name: "insurance", text: "File a claim", domain: "insurance"},
		{name: "no keywords", text: "Build me a polite receptionist that greets people.", domain: DefaultDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.domain, DetectDomain(tt.text))
		})
	}
}

func TestDetectTasks_GreetingAlwaysFirst(t *testing.T) {
	tasks := DetectTasks("We handle complaints and cancellations", "general_support")

	require.NotEmpty(t, tasks)
	assert.Equal(t, GreetingTaskName, tasks[0].TaskName)
	assert.Equal(t, []string{"Greeting", "File Complaint", "Cancellation Processing"}, taskNames(tasks))
}

func TestDetectTasks_DomainDefaults(t *testing.T) {
	tests := []struct {
		domain string
		task   string
	}{
		{domain: "healthcare", task: "Appointment Booking"},
		{domain: "e-commerce", task: "Order Status Check"},
		{domain: "finance", task: "Account Inquiry"},
		{domain: "travel", task: "General Inquiry"},
		{domain: DefaultDomain, task: "General Inquiry"},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			tasks := DetectTasks("greet people politely", tt.domain)
			assert.Equal(t, []string{GreetingTaskName, tt.task}, taskNames(tasks))
		})
	}
}

func TestDetectTasks_DoesNotShareTableSlices(t *testing.T) {
	tasks := DetectTasks("book an appointment", "healthcare")
	booking := &tasks[1]
	booking.DataToCollect[0] = "changed"

	again := DetectTasks("book an appointment", "healthcare")
	assert.Equal(t, "customer_name", again[1].DataToCollect[0])
}

func TestTaskKey(t *testing.T) {
	assert.Equal(t, "appointment_booking", TaskKey("Appointment Booking"))
	assert.Equal(t, "faq__information", TaskKey("FAQ & Information"))
	assert.Equal(t, "", TaskKey("&&"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "E-Commerce", TitleCase("e-commerce"))
	assert.Equal(t, "Food_Delivery", TitleCase("food_delivery"))
	assert.Equal(t, "Healthcare", TitleCase("HEALTHCARE"))
}

// ==========================
// Slot Tests
// ==========================

func TestExtractSlots_UniqueAndOrdered(t *testing.T) {
	slots := ExtractSlots("Ask for the full name, name again, email and e-mail, then the date")

	assert.Equal(t, []string{"customer_name", "email", "preferred_date"}, slots)
}

func TestMergeSlots_AppendsToFirstAPITask(t *testing.T) {
	tasks := []models.Task{
		{TaskName: GreetingTaskName},
		{TaskName: "FAQ & Information"},
		{TaskName: "Order Status Check", DataToCollect: []string{"order_number"}, RequiresAPI: true},
	}

	merged := MergeSlots(tasks, []string{"email", "order_number", "customer_name"})

	assert.Equal(t, []string{"order_number", "email", "customer_name"}, merged[2].DataToCollect)
	assert.Empty(t, merged[1].DataToCollect)
	assert.Equal(t, []string{"order_number"}, tasks[2].DataToCollect, "input must not change")
}

func TestMergeSlots_FirstNonGreetingWhenNoAPITask(t *testing.T) {
	tasks := []models.Task{
		{TaskName: GreetingTaskName},
		{TaskName: "General Inquiry", DataToCollect: []string{"customer_name", "inquiry_details"}},
	}

	merged := MergeSlots(tasks, []string{"email"})

	assert.Equal(t, []string{"customer_name", "inquiry_details", "email"}, merged[1].DataToCollect)
}

func TestMergeSlots_SynthesizesCollectTask(t *testing.T) {
	tasks := []models.Task{{TaskName: GreetingTaskName, Description: "Greet the caller and introduce the service"}}

	merged := MergeSlots(tasks, []string{"email", "phone_number"})

	require.Len(t, merged, 2)
	collect := merged[1]
	assert.Equal(t, CollectInfoTaskName, collect.TaskName)
	assert.Equal(t, []string{"email", "phone_number"}, collect.DataToCollect)
	assert.True(t, collect.RequiresAPI)
	assert.Equal(t, "Store or process collected customer information", collect.APIDescription)
}

func TestMergeSlots_NoSlotsLeavesTasks(t *testing.T) {
	tasks := []models.Task{{TaskName: GreetingTaskName}}
	assert.Equal(t, tasks, MergeSlots(tasks, nil))
}

// ==========================
// Requirement Tests
// ==========================

func TestFunctionNameForTask(t *testing.T) {
	tests := []struct {
		task     string
		function string
	}{
		{task: "Appointment Booking", function: "get_appointment_slots"},
		{task: "Order Status Check", function: "get_order_status"},
		{task: "Cancellation Processing", function: "process_cancellation"},
		{task: "General Inquiry", function: "search_knowledge_base"},
		{task: "Collect Customer Information", function: "collect_customer_information"},
		{task: "Refund (Partial)", function: "refund_partial"},
		{task: "!!!", function: "perform_action"},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			assert.Equal(t, tt.function, FunctionNameForTask(tt.task))
		})
	}
}

func TestParamType(t *testing.T) {
	assert.Equal(t, "string", ParamType("preferred_date"))
	assert.Equal(t, "string", ParamType("order_number"))
	assert.Equal(t, "string", ParamType("refund_amount"))
	assert.Equal(t, "integer", ParamType("ticket_count"))
	assert.Equal(t, "integer", ParamType("quantity"))
	assert.Equal(t, "string", ParamType("customer_name"))
}

func TestDeriveRequirements(t *testing.T) {
	tasks := []models.Task{
		{TaskName: GreetingTaskName},
		{
			TaskName:       "Appointment Booking",
			Description:    "Book an appointment for the customer",
			DataToCollect:  []string{"customer_name", "preferred_date"},
			RequiresAPI:    true,
			APIDescription: "Check available appointment slots and book an appointment",
		},
		{TaskName: "Custom Lookup", Description: "Look something up", RequiresAPI: true},
	}

	reqs := DeriveRequirements(tasks)

	require.Len(t, reqs, 2)
	assert.Equal(t, "get_appointment_slots", reqs[0].Name)
	assert.Equal(t, "Check available appointment slots and book an appointment", reqs[0].Purpose)
	assert.Equal(t, "List of available appointment slots with dates and times", reqs[0].ExpectedOutput)
	require.Len(t, reqs[0].InputParams, 2)
	assert.Equal(t, "The customer's preferred date", reqs[0].InputParams[1].Description)
	assert.Nil(t, reqs[0].InputParams[1].Required)

	assert.Equal(t, "custom_lookup", reqs[1].Name)
	assert.Equal(t, "Look something up", reqs[1].Purpose)
	assert.Equal(t, DefaultExpectedOutput, reqs[1].ExpectedOutput)
	assert.Empty(t, reqs[1].InputParams)
}

// ==========================
// Persona Tests
// ==========================

func TestDetectPersona(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		domain string
		want   PersonaCues
	}{
		{
			name:   "warm default",
			text:   "book appointments",
			domain: "healthcare",
			want: PersonaCues{
				Name: "MediBot", Role: "Healthcare Appointment & Patient Support Agent",
				Style: StyleWarm, Traits: []string{"friendly", "professional", "helpful"}, Gender: GenderFemale,
			},
		},
		{
			name:   "formal male",
			text:   "A formal agent with a male voice",
			domain: "e-commerce",
			want: PersonaCues{
				Name: "ShopAssist", Role: "E-Commerce Order & Shopping Support Agent",
				Style: StyleFormal, Traits: []string{"professional", "courteous", "precise"}, Gender: GenderMale,
			},
		},
		{
			name:   "friendly female voice",
			text:   "Friendly bot with a female voice",
			domain: DefaultDomain,
			want: PersonaCues{
				Name: "Ava", Role: "General_Support Customer Support Agent",
				Style: StyleCasual, Traits: []string{"friendly", "upbeat", "approachable"}, Gender: GenderFemale,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPersona(tt.text, tt.domain))
		})
	}
}

// ==========================
// Analyze Scenarios
// ==========================

func TestAnalyze_AppointmentScenario(t *testing.T) {
	brief := Analyze(appointmentPrompt, "en-US", "voiceowl")

	assert.Equal(t, "healthcare", brief.Domain)
	assert.Equal(t, "MediBot", brief.AgentNameSuggestion)
	assert.Equal(t, "en-US", brief.Language)
	assert.Equal(t, "voiceowl", brief.Platform)
	assert.Equal(t, []string{"customer_name", "preferred_date"}, brief.UserRequestedSlots)
	assert.Equal(t,
		[]string{"Greeting", "Collect Customer Name", "Appointment Booking", "Confirm Availability"},
		taskNames(brief.Tasks))

	booking := findTask(t, brief.Tasks, "Appointment Booking")
	assert.Equal(t, []string{"customer_name", "preferred_date", "preferred_time"}, booking.DataToCollect)

	require.NotEmpty(t, brief.FunctionsNeeded)
	assert.Equal(t, "get_appointment_slots", brief.FunctionsNeeded[0].Name)
	assert.Equal(t, "check_availability", brief.FunctionsNeeded[1].Name)

	require.Len(t, brief.FlowSummary, 11)
	assert.Equal(t, "Step 1: Greet the caller and introduce the service", brief.FlowSummary[0])
	assert.Equal(t, "Step 6: Check available appointment slots and book an appointment", brief.FlowSummary[5])
	assert.Equal(t, "Step 11: End the call politely", brief.FlowSummary[10])
	assert.Empty(t, brief.Ambiguities)
}

func TestAnalyze_NoDomainKeywords(t *testing.T) {
	brief := Analyze("Build me a polite receptionist that greets people.", "en-US", "voiceowl")

	assert.Equal(t, DefaultDomain, brief.Domain)
	assert.Equal(t, []string{"Greeting", "General Inquiry"}, taskNames(brief.Tasks))
	for _, task := range brief.Tasks {
		assert.False(t, task.RequiresAPI)
	}
	assert.Empty(t, brief.FunctionsNeeded)
	assert.NotNil(t, brief.FunctionsNeeded)
	assert.Len(t, brief.Ambiguities, 1)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	first := Analyze(appointmentPrompt, "en-GB", "voiceowl")
	second := Analyze(appointmentPrompt, "en-GB", "voiceowl")
	assert.Equal(t, first, second)
}

func TestAnalyze_SlotsUniquePerTask(t *testing.T) {
	prompts := []string{
		appointmentPrompt,
		"Track order, cancel orders, ask for name, email and phone number, handle complaints",
		"Formal finance agent for account balance, statement and date of birth checks",
	}

	for _, p := range prompts {
		brief := Analyze(p, "en-US", "voiceowl")
		for _, task := range brief.Tasks {
			seen := map[string]bool{}
			for _, slot := range task.DataToCollect {
				assert.False(t, seen[slot], "duplicate %s in %s", slot, task.TaskName)
				seen[slot] = true
			}
		}
	}
}
