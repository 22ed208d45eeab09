package exam

import (
	"context"
	"errors"
	"testing"
)

func validTest() Test {
	return Test{
		ID:               "t1",
		Title:            "Quiz",
		TimeLimitSeconds: 600,
		Questions: []Question{
			{ID: "q1", Type: TypeMultipleChoice, Prompt: "pick", Points: 2, Options: []string{"A", "B"}, CorrectAnswer: "A"},
			{ID: "q2", Type: TypeTrueFalse, Prompt: "yes?", Points: 1, CorrectAnswer: "false"},
			{ID: "q3", Type: TypeShortAnswer, Prompt: "name it", Points: 3},
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Test)
		ok     bool
	}{
		{"valid", func(*Test) {}, true},
		{"no questions", func(t *Test) { t.Questions = nil }, false},
		{"zero time limit", func(t *Test) { t.TimeLimitSeconds = 0 }, false},
		{"missing title", func(t *Test) { t.Title = "" }, false},
		{"zero points", func(t *Test) { t.Questions[0].Points = 0 }, false},
		{"duplicate id", func(t *Test) { t.Questions[1].ID = "q1" }, false},
		{"answer not an option", func(t *Test) { t.Questions[0].CorrectAnswer = "C" }, false},
		{"single option", func(t *Test) { t.Questions[0].Options = []string{"A"} }, false},
		{"duplicate option", func(t *Test) { t.Questions[0].Options = []string{"A", "A"} }, false},
		{"bad true-false key", func(t *Test) { t.Questions[1].CorrectAnswer = "yes" }, false},
		{"unknown type", func(t *Test) { t.Questions[2].Type = "matching" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tt := validTest()
			tc.mutate(&tt)
			err := tt.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidTestDefinition) {
				t.Fatalf("err = %v, want ErrInvalidTestDefinition", err)
			}
		})
	}
}

func TestMaxScoreAndClone(t *testing.T) {
	tt := validTest()
	if tt.MaxScore() != 6 {
		t.Fatalf("max = %d", tt.MaxScore())
	}
	c := tt.Clone()
	c.Questions[0].Options[0] = "Z"
	c.Questions[1].Prompt = "changed"
	if tt.Questions[0].Options[0] != "A" || tt.Questions[1].Prompt != "yes?" {
		t.Fatal("clone shares state with original")
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	if created, err := SeedDemo(ctx, s); err != nil || !created {
		t.Fatalf("first seed: %v %v", created, err)
	}
	if created, err := SeedDemo(ctx, s); err != nil || created {
		t.Fatalf("second seed: %v %v", created, err)
	}
	got, err := s.GetTest(ctx, DemoTest().ID)
	if err != nil || got.MaxScore() != 13 {
		t.Fatalf("seeded %+v, %v", got, err)
	}
}
