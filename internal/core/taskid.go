package core

import (
	"fmt"
	"regexp"
	"strings"
)

// activityPrefixLen is how many runes of the activity contribute to a task id.
// Two tasks on the same week, day and subject whose activities share this
// prefix resolve to the same id.
const activityPrefixLen = 10

var whitespaceRun = regexp.MustCompile(`\s+`)

// ResolveTaskID derives the stable identifier of a scheduled task from its
// week, day, subject and the first ten characters of its activity.
// Format: {week}-{day}-{subject}-{activity prefix}, lower-cased with every
// whitespace run replaced by a single dash (e.g. 2-tuesday-pharmacology-review-bet).
func ResolveTaskID(weekNumber int, dayOfWeek, subject, activity string) string {
	prefix := activity
	if r := []rune(activity); len(r) > activityPrefixLen {
		prefix = string(r[:activityPrefixLen])
	}
	id := fmt.Sprintf("%d-%s-%s-%s", weekNumber, dayOfWeek, subject, prefix)
	return whitespaceRun.ReplaceAllString(strings.ToLower(id), "-")
}
