package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
)

// 图节点名与步骤名一致。
const (
	NodeTriage     = StepTriage
	NodeKnowledge  = StepKnowledge
	NodeAction     = StepAction
	NodeFollowup   = StepFollowup
	NodeEscalation = StepEscalation
)

// 系统变体。消融实验逐个关闭组件，full_system 为线上形态。
const (
	VariantFull       = "full_system"
	VariantNoFollowup = "no_followup"
	VariantActionOnly = "action_only"
	VariantMinimal    = "minimal"
)

// Variants 返回图变体的固定顺序列表。
func Variants() []string {
	return []string{VariantFull, VariantNoFollowup, VariantActionOnly, VariantMinimal}
}

// BuildGraph 按变体构建处理流程图。
//
// 所有变体共享同一组步骤函数，差异只在接线：
//   - full_system:  triage -> {knowledge|action} -> followup -> END，escalation 随时可达
//   - no_followup:  同上但 knowledge/action 直接到 END
//   - action_only:  triage -> action -> END，忽略路由决策，escalation 不可达
//   - minimal:      triage -> {knowledge|action} -> END，escalation 不可达
//
// 未接线的节点不加入图，避免编译器对孤立节点报错。
func BuildGraph(ctx context.Context, h *Handlers, variant string) (compose.Runnable[State, State], error) {
	g := compose.NewGraph[State, State]()

	withFollowup := variant == VariantFull
	withKnowledge := variant != VariantActionOnly
	withEscalation := variant == VariantFull || variant == VariantNoFollowup

	g.AddLambdaNode(NodeTriage, compose.InvokableLambda(h.Triage))
	g.AddLambdaNode(NodeAction, compose.InvokableLambda(h.Action))
	if withEscalation {
		g.AddLambdaNode(NodeEscalation, compose.InvokableLambda(h.Escalation))
	}
	if withKnowledge {
		g.AddLambdaNode(NodeKnowledge, compose.InvokableLambda(h.Knowledge))
	}
	if withFollowup {
		g.AddLambdaNode(NodeFollowup, compose.InvokableLambda(h.Followup))
	}

	if err := g.AddEdge(compose.START, NodeTriage); err != nil {
		return nil, err
	}

	// 分诊后的路由。
	switch variant {
	case VariantActionOnly:
		// 无视路由决策，一律执行动作步骤。
		if err := g.AddEdge(NodeTriage, NodeAction); err != nil {
			return nil, err
		}
	case VariantMinimal:
		// 升级路由并入 knowledge，只保留 action/knowledge 两条路径。
		err := g.AddBranch(NodeTriage, compose.NewGraphBranch(func(ctx context.Context, state State) (string, error) {
			if state.NextStep == StepAction {
				return NodeAction, nil
			}
			return NodeKnowledge, nil
		}, map[string]bool{
			NodeAction:    true,
			NodeKnowledge: true,
		}))
		if err != nil {
			return nil, err
		}
	default:
		err := g.AddBranch(NodeTriage, compose.NewGraphBranch(func(ctx context.Context, state State) (string, error) {
			switch state.NextStep {
			case StepAction:
				return NodeAction, nil
			case StepEscalation:
				return NodeEscalation, nil
			default:
				return NodeKnowledge, nil
			}
		}, map[string]bool{
			NodeAction:     true,
			NodeKnowledge:  true,
			NodeEscalation: true,
		}))
		if err != nil {
			return nil, err
		}
	}

	// knowledge/action 之后：步骤内部可能把 NextStep 改写为 escalation，
	// 但只有接了 escalation 节点的变体才跟进；其余变体就地结束，
	// 保证缩减配置的步骤数不超出接线声明。
	afterStep := func(ctx context.Context, state State) (string, error) {
		if withEscalation && state.NextStep == StepEscalation {
			return NodeEscalation, nil
		}
		if withFollowup {
			return NodeFollowup, nil
		}
		return compose.END, nil
	}
	afterNodes := map[string]bool{
		compose.END: true,
	}
	if withEscalation {
		afterNodes[NodeEscalation] = true
	}
	if withFollowup {
		afterNodes[NodeFollowup] = true
	}

	if err := g.AddBranch(NodeAction, compose.NewGraphBranch(afterStep, afterNodes)); err != nil {
		return nil, err
	}
	if withKnowledge {
		if err := g.AddBranch(NodeKnowledge, compose.NewGraphBranch(afterStep, afterNodes)); err != nil {
			return nil, err
		}
	}

	if withFollowup {
		if err := g.AddEdge(NodeFollowup, compose.END); err != nil {
			return nil, err
		}
	}
	if withEscalation {
		if err := g.AddEdge(NodeEscalation, compose.END); err != nil {
			return nil, err
		}
	}

	runnable, err := g.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile graph (%s): %w", variant, err)
	}
	return runnable, nil
}
