// internal/agentgen/flow.go
package agentgen

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/models"
)

// Fixed node ids.
const (
	NodeGreet    = "node_greet"
	NodeConfirm  = "node_confirm"
	NodeFallback = "node_fallback"
	NodeTransfer = "node_transfer"
	NodeEnd      = "node_end"
)

// Transition conditions.
const (
	CondUserResponds        = "user_responds"
	CondNotUnderstood       = "not_understood"
	CondSlotFilled          = "slot_filled"
	CondAPIResponseReceived = "api_response_received"
	CondSuccess             = "success"
	CondFailure             = "failure"
	CondContinue            = "continue"
	CondUserWantsTransfer   = "user_wants_transfer"
	CondUserDeclines        = "user_declines_transfer"
	CondNothingElse         = "nothing_else"
	CondHasMoreQuestions    = "has_more_questions"
	CondRetry               = "retry"
	CondTransferred         = "transferred"
	intentConditionPrefix   = "intent_"
)

const apiWaitPrompt = "One moment while I look that up for you..."

type flowBuilder struct {
	nodes []models.FlowNode
	index map[string]int
}

func (b *flowBuilder) add(node models.FlowNode) {
	node.Transitions = []models.FlowTransition{}
	b.index[node.NodeID] = len(b.nodes)
	b.nodes = append(b.nodes, node)
}

func (b *flowBuilder) has(id string) bool {
	_, ok := b.index[id]
	return ok
}

func (b *flowBuilder) link(from, condition, to string) {
	n := &b.nodes[b.index[from]]
	n.Transitions = append(n.Transitions, models.FlowTransition{Condition: condition, TargetNodeID: to})
}

// taskGroup is the chain of nodes emitted for one task.
type taskGroup struct {
	intent   string
	chain    []string
	decision string
	success  string
	failure  string
}

// BuildFlow synthesizes the conversation graph for a brief. functionNames are
// the functions the api_call nodes may reference, in catalogue order.
func BuildFlow(brief *models.AnalysisBrief, greeting string, functionNames []string) *models.ConversationFlow {
	b := &flowBuilder{index: make(map[string]int)}

	b.add(models.FlowNode{
		NodeID:     NodeGreet,
		Type:       models.NodeGreeting,
		Label:      "Welcome Greeting",
		PromptText: greeting,
	})

	groups := make([]taskGroup, 0, len(brief.Tasks))
	for _, task := range brief.Tasks {
		groups = append(groups, b.addTask(task, functionNames))
	}

	b.add(models.FlowNode{NodeID: NodeConfirm, Type: models.NodeConfirm, Label: "Confirm & Anything Else",
		PromptText: "Is there anything else I can help you with today?"})
	b.add(models.FlowNode{NodeID: NodeFallback, Type: models.NodeFallback, Label: "Fallback / Didn't Understand",
		PromptText: FallbackMessage})
	b.add(models.FlowNode{NodeID: NodeTransfer, Type: models.NodeTransfer, Label: "Transfer to Human Agent",
		PromptText: EscalationMessage})
	b.add(models.FlowNode{NodeID: NodeEnd, Type: models.NodeEnd, Label: "End Call",
		PromptText: "Thank you for calling! Have a wonderful day. Goodbye!"})

	b.wire(groups)

	names := make([]string, len(brief.Tasks))
	for i, t := range brief.Tasks {
		names[i] = t.TaskName
	}
	agentName := orDefault(brief.AgentNameSuggestion, "the agent")

	return &models.ConversationFlow{
		Name:        orDefault(brief.Domain, defaultDomain) + "_flow",
		Description: fmt.Sprintf("Conversation flow for %s handling %s", agentName, strings.Join(names, ", ")),
		EntryNodeID: NodeGreet,
		Nodes:       b.nodes,
	}
}

func (b *flowBuilder) addTask(task models.Task, functionNames []string) taskGroup {
	key := analysis.TaskKey(task.TaskName)
	group := taskGroup{intent: TaskIntentName(task.TaskName)}

	for _, slot := range task.DataToCollect {
		slotID := strings.ReplaceAll(strings.ToLower(slot), " ", "_")
		id := "node_collect_" + slotID
		if b.has(id) {
			id = "node_collect_" + key + "_" + slotID
		}
		if b.has(id) {
			continue
		}
		b.add(models.FlowNode{
			NodeID:      id,
			Type:        models.NodeCollectInfo,
			Label:       "Collect " + analysis.TitleCase(analysis.Readable(slotID)),
			PromptText:  SlotPrompt(slot),
			CollectSlot: slotID,
		})
		group.chain = append(group.chain, id)
	}

	if !task.RequiresAPI {
		return group
	}

	function := MatchFunction(key, task.APIDescription, functionNames)
	if b.has("node_api_" + key) {
		key = fmt.Sprintf("%s_%d", key, len(b.nodes))
	}
	title := analysis.TitleCase(analysis.Readable(key))
	words := analysis.Readable(key)
	apiID := "node_api_" + key

	b.add(models.FlowNode{
		NodeID:       apiID,
		Type:         models.NodeAPICall,
		Label:        "Call API for " + title,
		PromptText:   apiWaitPrompt,
		FunctionCall: function,
	})
	group.chain = append(group.chain, apiID)

	group.decision = "node_decision_" + key
	group.success = "node_success_" + key
	group.failure = "node_failure_" + key
	b.add(models.FlowNode{NodeID: group.decision, Type: models.NodeDecision, Label: "Check " + title + " Result"})
	b.add(models.FlowNode{
		NodeID:     group.success,
		Type:       models.NodeResponse,
		Label:      title + " - Success",
		PromptText: fmt.Sprintf("Great news! I've processed your %s successfully.", words),
	})
	b.add(models.FlowNode{
		NodeID:     group.failure,
		Type:       models.NodeResponse,
		Label:      title + " - Failure",
		PromptText: fmt.Sprintf("I'm sorry, I wasn't able to complete your %s at this time. Would you like me to transfer you to a team member?", words),
	})
	group.chain = append(group.chain, group.decision)
	return group
}

// MatchFunction picks the function an api_call node invokes: the first name
// containing the task key or contained in the API description, otherwise the
// first function. It returns "" when there are no functions.
func MatchFunction(taskKey, apiDescription string, functionNames []string) string {
	for _, fn := range functionNames {
		if strings.Contains(fn, taskKey) || strings.Contains(apiDescription, fn) {
			return fn
		}
	}
	if len(functionNames) > 0 {
		return functionNames[0]
	}
	return ""
}

func (b *flowBuilder) wire(groups []taskGroup) {
	entered := false
	for _, g := range groups {
		if len(g.chain) == 0 {
			continue
		}
		if !entered {
			b.link(NodeGreet, CondUserResponds, g.chain[0])
			entered = true
			continue
		}
		b.link(NodeGreet, intentConditionPrefix+g.intent, g.chain[0])
	}
	if !entered {
		b.link(NodeGreet, CondUserResponds, NodeConfirm)
	}
	b.link(NodeGreet, intentConditionPrefix+IntentHumanAgent, NodeTransfer)
	b.link(NodeGreet, CondNotUnderstood, NodeFallback)

	for _, g := range groups {
		for i, id := range g.chain {
			next := NodeConfirm
			if i+1 < len(g.chain) {
				next = g.chain[i+1]
			}
			switch b.nodes[b.index[id]].Type {
			case models.NodeCollectInfo:
				b.link(id, CondSlotFilled, next)
			case models.NodeAPICall:
				b.link(id, CondAPIResponseReceived, next)
			case models.NodeDecision:
				b.link(id, CondSuccess, g.success)
				b.link(id, CondFailure, g.failure)
				b.link(g.success, CondContinue, NodeConfirm)
				b.link(g.failure, CondUserWantsTransfer, NodeTransfer)
				b.link(g.failure, CondUserDeclines, NodeConfirm)
			}
		}
	}

	b.link(NodeConfirm, CondNothingElse, NodeEnd)
	b.link(NodeConfirm, CondHasMoreQuestions, NodeGreet)
	b.link(NodeFallback, CondRetry, NodeGreet)
	b.link(NodeTransfer, CondTransferred, NodeEnd)
}
