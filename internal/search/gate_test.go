package search

import "testing"

func TestComputeGateRoute(t *testing.T) {
	tests := []struct {
		name string
		out  gateModelOutput
		want GateRoute
	}{
		{
			name: "food signal no stops the pipeline",
			out:  gateModelOutput{FoodSignal: FoodNo},
			want: GateRouteStop,
		},
		{
			name: "no food and no location asks for clarification",
			out:  gateModelOutput{FoodSignal: FoodUncertain, HasFood: false, HasLocation: false},
			want: GateRouteClarify,
		},
		{
			name: "clean confident simple query takes the core path",
			out: gateModelOutput{
				FoodSignal: FoodYes, HasFood: true, HasLocation: true,
				Confidence: 0.9, HasModifiers: false,
			},
			want: GateRouteCore,
		},
		{
			name: "modifiers present forces full extraction",
			out: gateModelOutput{
				FoodSignal: FoodYes, HasFood: true, HasLocation: true,
				Confidence: 0.95, HasModifiers: true,
			},
			want: GateRouteFull,
		},
		{
			name: "low confidence forces full extraction",
			out: gateModelOutput{
				FoodSignal: FoodYes, HasFood: true, HasLocation: true,
				Confidence: 0.5,
			},
			want: GateRouteFull,
		},
		{
			name: "uncertain signal with both markers still full",
			out: gateModelOutput{
				FoodSignal: FoodUncertain, HasFood: true, HasLocation: true,
				Confidence: 0.95,
			},
			want: GateRouteFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeGateRoute(tt.out); got != tt.want {
				t.Errorf("computeGateRoute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGateConfidenceThreshold_IsBoundary(t *testing.T) {
	exact := gateModelOutput{FoodSignal: FoodYes, HasFood: true, HasLocation: true, Confidence: GateConfidenceThreshold}
	if got := computeGateRoute(exact); got != GateRouteCore {
		t.Errorf("confidence exactly at threshold should route CORE, got %v", got)
	}

	justBelow := gateModelOutput{FoodSignal: FoodYes, HasFood: true, HasLocation: true, Confidence: GateConfidenceThreshold - 0.01}
	if got := computeGateRoute(justBelow); got != GateRouteFull {
		t.Errorf("confidence just below threshold should route FULL, got %v", got)
	}
}
