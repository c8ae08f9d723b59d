package deferred

import (
	"context"
	"testing"

	"github.com/kbukum/deferhttp/testutil"
)

func TestStatusCode_Comparators(t *testing.T) {
	spy := testutil.NewSpyPending(testutil.NewResponse(200, ""), nil)
	s := New(spy).Status()
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func(context.Context, int) (bool, error)
		arg  int
		want bool
	}{
		{"== 200", s.Equals, 200, true},
		{"!= 200", s.NotEquals, 200, false},
		{"> 199", s.GreaterThan, 199, true},
		{"> 200", s.GreaterThan, 200, false},
		{">= 200", s.GreaterOrEqual, 200, true},
		{">= 201", s.GreaterOrEqual, 201, false},
		{"< 200", s.LessThan, 200, false},
		{"< 201", s.LessThan, 201, true},
		{"<= 200", s.LessOrEqual, 200, true},
		{"<= 199", s.LessOrEqual, 199, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(ctx, tc.arg)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("status %s = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
	if v, err := s.Value(ctx); err != nil || v != 200 {
		t.Errorf("Value = %d, %v", v, err)
	}
	if spy.Awaits() != 1 {
		t.Errorf("comparisons must share one resolution, got %d awaits", spy.Awaits())
	}
}
