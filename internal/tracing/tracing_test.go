package tracing

import (
	"testing"

	"go.opentelemetry.io/otel"
)

func TestRecordHelpersBeforeInit(t *testing.T) {
	// Helpers must be no-ops, not panics, when Init has never run.
	TicksProcessed = nil
	PlansAdopted = nil
	PlansRejected = nil
	AgentsActive = nil
	DecisionLatency = nil
	PlanRequestTime = nil

	RecordTicks(3)
	RecordPlanAdopted()
	RecordPlanRejected()
	AddActiveAgents(2)
	AddActiveAgents(-2)
	RecordDecisionLatency(0.5)
	RecordPlanRequestTime(120)
}

func TestInitMetricsCreatesAllInstruments(t *testing.T) {
	Meter = otel.Meter("tracing-test")
	if err := initMetrics(); err != nil {
		t.Fatalf("initMetrics: %v", err)
	}

	if TicksProcessed == nil || PlansAdopted == nil || PlansRejected == nil ||
		AgentsActive == nil || DecisionLatency == nil || PlanRequestTime == nil {
		t.Fatal("expected every instrument to be created")
	}

	// Recording through the helpers must work against the global meter.
	RecordTicks(1)
	RecordPlanAdopted()
	RecordPlanRejected()
	AddActiveAgents(1)
	RecordDecisionLatency(1.5)
	RecordPlanRequestTime(250)
}
