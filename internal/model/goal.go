package model

// DailyGoal is the single target macro profile of an owner.
type DailyGoal struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"-"`
	Macros
	CreatedAt Time `db:"created_at" json:"created_at"`
	UpdatedAt Time `db:"updated_at" json:"updated_at"`
}

func DefaultGoalMacros() Macros {
	fiber, sugar, sodium := 30.0, 50.0, 2300.0
	return Macros{
		Calories: 2000,
		ProteinG: 150,
		CarbsG:   200,
		FatG:     67,
		FiberG:   &fiber,
		SugarG:   &sugar,
		SodiumMg: &sodium,
	}
}

// GoalPatch lists the mutable goal fields. Nil fields are left unchanged.
type GoalPatch struct {
	Calories *float64
	ProteinG *float64
	CarbsG   *float64
	FatG     *float64
	FiberG   *float64
	SugarG   *float64
	SodiumMg *float64
}

// Apply returns m with every non-nil patch field written over it.
func (p GoalPatch) Apply(m Macros) Macros {
	if p.Calories != nil {
		m.Calories = *p.Calories
	}
	if p.ProteinG != nil {
		m.ProteinG = *p.ProteinG
	}
	if p.CarbsG != nil {
		m.CarbsG = *p.CarbsG
	}
	if p.FatG != nil {
		m.FatG = *p.FatG
	}
	if p.FiberG != nil {
		m.FiberG = p.FiberG
	}
	if p.SugarG != nil {
		m.SugarG = p.SugarG
	}
	if p.SodiumMg != nil {
		m.SodiumMg = p.SodiumMg
	}
	return m
}
