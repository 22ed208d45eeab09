package exam

import "context"

// DemoTest is a sample mathematics paper used to seed local installs.
func DemoTest() Test {
	return Test{
		ID:                     "math-final",
		Title:                  "Mathematics Final Exam",
		Description:            "Comprehensive mathematics assessment covering algebra, geometry, and calculus.",
		TimeLimitSeconds:       60 * 60,
		ShowResultsImmediately: true,
		Questions: []Question{
			{ID: "1", Type: TypeMultipleChoice, Prompt: "What is the derivative of x²?", Points: 2,
				Options: []string{"x", "2x", "x²", "2x²"}, CorrectAnswer: "2x"},
			{ID: "2", Type: TypeMultipleChoice, Prompt: "What is the area of a circle with radius r?", Points: 2,
				Options: []string{"πr", "πr²", "2πr", "πr³"}, CorrectAnswer: "πr²"},
			{ID: "3", Type: TypeTrueFalse, Prompt: "The sum of angles in a triangle is always 180 degrees.", Points: 1,
				CorrectAnswer: "true"},
			{ID: "4", Type: TypeShortAnswer, Prompt: "Solve for x: 2x + 5 = 13", Points: 3},
			{ID: "5", Type: TypeEssay, Prompt: "Explain the Pythagorean theorem and provide an example of its application.", Points: 5},
		},
	}
}

// SeedDemo stores DemoTest unless a test with its id already exists.
func SeedDemo(ctx context.Context, s Store) (bool, error) {
	t := DemoTest()
	if _, err := s.GetTest(ctx, t.ID); err == nil {
		return false, nil
	}
	if err := s.PutTest(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}
