package visibility

import (
	"strconv"
	"testing"

	"github.com/goliatone/go-pagebuilder/pkg/model"
)

func rule(action model.TriggerAction, condition string) *model.TriggerRule {
	return &model.TriggerRule{Action: action, Field: "f", Condition: condition}
}

func TestEvaluateNilRuleIsVisible(t *testing.T) {
	if !Visible(nil, nil) {
		t.Fatalf("expected nil rule to be visible")
	}
}

func TestEvaluateValueTokens(t *testing.T) {
	show := rule(model.TriggerShow, "value[a][b]")

	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "first literal", value: "a", want: true},
		{name: "second literal", value: "b", want: true},
		{name: "other", value: "c", want: false},
		{name: "missing", value: nil, want: false},
		{name: "array intersects", value: []any{"x", "b"}, want: true},
		{name: "string array intersects", value: []string{"a"}, want: true},
		{name: "array disjoint", value: []any{"x", "y"}, want: false},
		{name: "empty array", value: []any{}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Visible(show, map[string]any{"f": tc.value})
			if got != tc.want {
				t.Fatalf("expected visible=%v, got %v", tc.want, got)
			}
		})
	}
}

func TestEvaluateWildcard(t *testing.T) {
	show := rule(model.TriggerShow, "value[a*]")
	if !Visible(show, map[string]any{"f": "apple"}) {
		t.Fatalf("expected prefix match")
	}
	if Visible(show, map[string]any{"f": "banana"}) {
		t.Fatalf("expected no match for banana")
	}
	if !Visible(show, map[string]any{"f": []any{"zed", "avocado"}}) {
		t.Fatalf("expected array element prefix match")
	}
}

func TestWildcardEscapesMetacharacters(t *testing.T) {
	show := rule(model.TriggerShow, "value[v1.*]")
	if !Visible(show, map[string]any{"f": "v1.2"}) {
		t.Fatalf("expected v1.2 to match")
	}
	if Visible(show, map[string]any{"f": "v1x2"}) {
		t.Fatalf("expected dot to be literal")
	}
}

func TestEvaluateCheckedUnchecked(t *testing.T) {
	checked := rule(model.TriggerShow, "checked")
	unchecked := rule(model.TriggerShow, "unchecked")

	if !Visible(checked, map[string]any{"f": true}) {
		t.Fatalf("checked should match true")
	}
	if Visible(checked, map[string]any{"f": false}) {
		t.Fatalf("checked should not match false")
	}
	if !Visible(unchecked, map[string]any{}) {
		t.Fatalf("unchecked should match a missing value")
	}
	if Visible(unchecked, map[string]any{"f": "yes"}) {
		t.Fatalf("unchecked should not match a non-empty string")
	}
}

func TestEvaluateHideInvertsMatch(t *testing.T) {
	hide := rule(model.TriggerHide, "value[archived]")
	if Visible(hide, map[string]any{"f": "archived"}) {
		t.Fatalf("expected hide rule to hide on match")
	}
	if !Visible(hide, map[string]any{"f": "live"}) {
		t.Fatalf("expected hide rule to show on miss")
	}
}

func TestMalformedConditionFailsClosedForShowOpenForHide(t *testing.T) {
	values := map[string]any{"f": "anything"}
	for _, condition := range []string{"", "equals(a)", "value", "[a]"} {
		if Visible(rule(model.TriggerShow, condition), values) {
			t.Fatalf("show with malformed %q should hide the field", condition)
		}
		if !Visible(rule(model.TriggerHide, condition), values) {
			t.Fatalf("hide with malformed %q should keep the field visible", condition)
		}
	}
}

func TestNonVisibilityActionsDoNotHide(t *testing.T) {
	for _, action := range []model.TriggerAction{model.TriggerEnable, model.TriggerDisable, model.TriggerEmpty} {
		result := Evaluate(rule(action, "value[x]"), map[string]any{"f": "x"})
		if !result.Visible {
			t.Fatalf("%s should not affect visibility", action)
		}
		if !result.Triggered || result.Action != action {
			t.Fatalf("%s should report the match, got %+v", action, result)
		}
	}
}

func TestNumericValuesAreStringified(t *testing.T) {
	show := rule(model.TriggerShow, "value[3]")
	if !Visible(show, map[string]any{"f": 3.0}) {
		t.Fatalf("expected float 3 to match token 3")
	}
	if !Visible(show, map[string]any{"f": 3}) {
		t.Fatalf("expected int 3 to match token 3")
	}
}

func TestResultDisabled(t *testing.T) {
	cases := []struct {
		action model.TriggerAction
		value  any
		want   bool
	}{
		{model.TriggerDisable, true, true},
		{model.TriggerDisable, false, false},
		{model.TriggerEnable, true, false},
		{model.TriggerEnable, false, true},
		{model.TriggerShow, true, false},
	}
	for _, tc := range cases {
		rule := &model.TriggerRule{Action: tc.action, Field: "locked", Condition: model.ConditionChecked}
		if got := Evaluate(rule, map[string]any{"locked": tc.value}).Disabled(); got != tc.want {
			t.Fatalf("%s/%v: expected %v, got %v", tc.action, tc.value, tc.want, got)
		}
	}
}

func TestConditionCacheIsBounded(t *testing.T) {
	for idx := 0; idx < maxCachedConditions*3; idx++ {
		if _, ok := ParseCondition("value[" + strconv.Itoa(idx) + "]"); !ok {
			t.Fatalf("condition %d should parse", idx)
		}
	}
	if got := conditions.len(); got > maxCachedConditions {
		t.Fatalf("cache holds %d conditions, limit is %d", got, maxCachedConditions)
	}

	cond, ok := ParseCondition("value[7]")
	if !ok || len(cond.Literals) != 1 || cond.Literals[0] != "7" {
		t.Fatalf("unexpected condition after reset: %+v ok=%v", cond, ok)
	}
}
