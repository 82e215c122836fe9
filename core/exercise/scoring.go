package exercise

// Score computes the score of `ans` for `task`. It never fails: unknown task kinds
// and missing answers score 0.
func Score(task Task, ans Answer) float64 {
	switch task.Kind {
	case OneChoiceTask:
		if ans.Value != nil && *ans.Value == task.CorrectAnswer {
			return task.Score
		}
		return 0
	case TextTask:
		if ans.Value != nil && containsKey(task.CorrectAnswers, *ans.Value) {
			return task.Score
		}
		return 0
	case MultipleChoiceTask:
		return scoreMultipleChoice(task, ans.Values)
	default:
		return 0
	}
}

// scoreMultipleChoice counts an option as correct when it was selected iff it is a correct answer.
func scoreMultipleChoice(task Task, selected []string) float64 {
	n := len(task.Options)
	if n == 0 {
		return 0
	}
	var cntCorrect int
	for _, opt := range task.Options {
		if containsKey(task.CorrectAnswers, opt.Key) == containsKey(selected, opt.Key) {
			cntCorrect++
		}
	}
	if task.OnlyFull {
		if cntCorrect == n {
			return task.Score
		}
		return 0
	}
	return task.Score * float64(cntCorrect) / float64(n)
}

// ScoreAttempt scores answers[i] against tasks[i] and returns the total with the per-answer scores.
// Answers without a task at their position score 0.
func ScoreAttempt(tasks []Task, answers []Answer) (float64, []float64) {
	var total float64
	scores := make([]float64, len(answers))
	for i, ans := range answers {
		if i >= len(tasks) {
			break
		}
		scores[i] = Score(tasks[i], ans)
		total += scores[i]
	}
	return total, scores
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
