package stats

// Milestone is a health checkpoint reached after a number of days free.
type Milestone struct {
	Days int
	Text string
}

// MilestoneStatus pairs a milestone with whether the streak has reached it.
type MilestoneStatus struct {
	Milestone
	Reached bool
}

var milestones = []Milestone{
	{1, "Nicotine levels drop. First clean day logged."},
	{3, "Cravings begin to taper for some users."},
	{7, "One week. Huge momentum."},
	{14, "Taste and smell may sharpen."},
	{30, "One month. Habit pathways weakening."},
	{90, "Three months. Major routine reset."},
	{180, "Six months. Long-term groove."},
	{365, "One year. Legendary."},
}

// Milestones returns every health milestone, marked reached when daysFree is
// at least its day count.
func Milestones(daysFree int) []MilestoneStatus {
	out := make([]MilestoneStatus, len(milestones))
	for i, m := range milestones {
		out[i] = MilestoneStatus{Milestone: m, Reached: daysFree >= m.Days}
	}
	return out
}

// NextMilestone returns the first milestone not yet reached.
func NextMilestone(daysFree int) (Milestone, bool) {
	for _, m := range milestones {
		if daysFree < m.Days {
			return m, true
		}
	}
	return Milestone{}, false
}
