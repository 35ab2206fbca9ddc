package data

// Fixture returns a small but complete dataset used by tests and the demo
// server: a board with every movement mode, phase-restricted cards, dice
// tables and negotiable spaces.
func Fixture() *StaticService {
	return NewStaticService(Tables{
		Configs: []SpaceConfig{
			{SpaceName: "OWNER-SCOPE-INITIATION", Phase: "SETUP", PathType: "Main", IsStartingSpace: true},
			{SpaceName: "OWNER-FUND-INITIATION", Phase: "SETUP", PathType: "Main"},
			{SpaceName: "ARCH-INIT-REVIEW", Phase: "DESIGN", PathType: "Main", RequiresDiceRoll: true},
			{SpaceName: "ENG-DESIGN-REVIEW", Phase: "DESIGN", PathType: "Side"},
			{SpaceName: "PM-DECISION-CHECK", Phase: "DESIGN", PathType: "Side"},
			{SpaceName: "CON-BUILD-SITE", Phase: "CONSTRUCTION", PathType: "Main", RequiresDiceRoll: true},
			{SpaceName: "REG-FINAL-REVIEW", Phase: "REGULATORY", PathType: "Main"},
			{SpaceName: "FINISH", Phase: "REGULATORY", PathType: "Main", IsEndingSpace: true},
		},
		Movement: []MovementRow{
			{SpaceName: "OWNER-SCOPE-INITIATION", VisitType: VisitFirst, MovementType: MovementFixed, Destinations: []string{"OWNER-FUND-INITIATION"}},
			{SpaceName: "OWNER-SCOPE-INITIATION", VisitType: VisitSubsequent, MovementType: MovementFixed, Destinations: []string{"OWNER-FUND-INITIATION"}},
			{SpaceName: "OWNER-FUND-INITIATION", VisitType: VisitFirst, MovementType: MovementChoice, Destinations: []string{"ARCH-INIT-REVIEW", "ENG-DESIGN-REVIEW", "PM-DECISION-CHECK"}},
			{SpaceName: "OWNER-FUND-INITIATION", VisitType: VisitSubsequent, MovementType: MovementChoice, Destinations: []string{"ARCH-INIT-REVIEW", "PM-DECISION-CHECK"}},
			{SpaceName: "ARCH-INIT-REVIEW", VisitType: VisitFirst, MovementType: MovementDice},
			{SpaceName: "ENG-DESIGN-REVIEW", VisitType: VisitFirst, MovementType: MovementFixed, Destinations: []string{"CON-BUILD-SITE"}},
			{SpaceName: "PM-DECISION-CHECK", VisitType: VisitFirst, MovementType: MovementFixed, Destinations: []string{"CON-BUILD-SITE"}},
			{SpaceName: "CON-BUILD-SITE", VisitType: VisitFirst, MovementType: MovementFixed, Destinations: []string{"REG-FINAL-REVIEW"}},
			{SpaceName: "CON-BUILD-SITE", VisitType: VisitSubsequent, MovementType: MovementFixed, Destinations: []string{"REG-FINAL-REVIEW"}},
			{SpaceName: "REG-FINAL-REVIEW", VisitType: VisitFirst, MovementType: MovementFixed, Destinations: []string{"FINISH"}},
			{SpaceName: "FINISH", VisitType: VisitFirst, MovementType: MovementNone},
		},
		DiceOutcomes: []DiceOutcomeRow{
			{
				SpaceName: "ARCH-INIT-REVIEW",
				VisitType: VisitFirst,
				Destinations: [6]string{
					"ENG-DESIGN-REVIEW", "ENG-DESIGN-REVIEW", "PM-DECISION-CHECK",
					"PM-DECISION-CHECK", "CON-BUILD-SITE", "CON-BUILD-SITE",
				},
			},
		},
		SpaceEffects: []SpaceEffectRow{
			{SpaceName: "OWNER-SCOPE-INITIATION", VisitType: VisitFirst, EffectType: "time", Action: "add", Value: "5", Description: "Spend 5 days", TriggerType: "auto"},
			{SpaceName: "OWNER-FUND-INITIATION", VisitType: VisitFirst, EffectType: "time", Action: "add", Value: "5", Description: "Spend 5 days", TriggerType: "auto"},
			{SpaceName: "OWNER-FUND-INITIATION", VisitType: VisitFirst, EffectType: "money", Action: "deduct", Value: "500", Description: "Pay filing fees", TriggerType: "auto"},
			{SpaceName: "OWNER-FUND-INITIATION", VisitType: VisitFirst, EffectType: "cards", Action: "draw", Value: "1", CardType: CardTypeBank, Description: "Apply for a loan", TriggerType: "manual"},
			{SpaceName: "ARCH-INIT-REVIEW", VisitType: VisitFirst, EffectType: "time", Action: "add", Value: "10", Description: "Spend 10 days", TriggerType: "auto"},
			{SpaceName: "CON-BUILD-SITE", VisitType: VisitFirst, EffectType: "time", Action: "add", Value: "20", Description: "Spend 20 days", TriggerType: "auto"},
			{SpaceName: "CON-BUILD-SITE", VisitType: VisitFirst, EffectType: "money", Action: "deduct", Value: "5%", Description: "Pay construction fees", TriggerType: "auto"},
			{SpaceName: "CON-BUILD-SITE", VisitType: VisitFirst, EffectType: "money", Action: "deduct", Value: "1000", Condition: "per_200k", Description: "Loan servicing", TriggerType: "auto"},
			{SpaceName: "REG-FINAL-REVIEW", VisitType: VisitFirst, EffectType: "time", Action: "add", Value: "15", Description: "Spend 15 days", TriggerType: "auto"},
			{SpaceName: "REG-FINAL-REVIEW", VisitType: VisitSubsequent, EffectType: "time", Action: "add", Value: "5", Description: "Spend 5 days", TriggerType: "auto"},
		},
		DiceEffects: []DiceEffectRow{
			{
				SpaceName: "ARCH-INIT-REVIEW", VisitType: VisitFirst,
				EffectType: "cards", Action: "draw", CardType: CardTypeWork,
				RollValues: [6]string{"1", "1", "2", "2", "3", "3"},
			},
		},
		Content: []SpaceContentRow{
			{SpaceName: "OWNER-SCOPE-INITIATION", VisitType: VisitFirst, Title: "Project Kickoff", Story: "The owner defines the project scope.", CanNegotiate: false},
			{SpaceName: "OWNER-FUND-INITIATION", VisitType: VisitFirst, Title: "Funding Review", Story: "Secure initial funding.", CanNegotiate: true},
			{SpaceName: "ARCH-INIT-REVIEW", VisitType: VisitFirst, Title: "Architectural Review", Story: "The architect reviews the plans.", CanNegotiate: true},
			{SpaceName: "ENG-DESIGN-REVIEW", VisitType: VisitFirst, Title: "Engineering Review", Story: "Engineers check the design.", CanNegotiate: false},
			{SpaceName: "PM-DECISION-CHECK", VisitType: VisitFirst, Title: "PM Decision", Story: "The project manager weighs in.", CanNegotiate: false},
			{SpaceName: "CON-BUILD-SITE", VisitType: VisitFirst, Title: "Construction", Story: "Work begins on site.", CanNegotiate: true},
			{SpaceName: "REG-FINAL-REVIEW", VisitType: VisitFirst, Title: "Final Inspection", Story: "Regulators make their final pass.", CanNegotiate: false},
			{SpaceName: "FINISH", VisitType: VisitFirst, Title: "Project Complete", Story: "The building opens.", CanNegotiate: false},
		},
		Cards: fixtureCards(),
	})
}

func fixtureCards() []CardDefinition {
	return []CardDefinition{
		{CardID: "W001", CardName: "Foundation Work", CardType: CardTypeWork, Cost: 1200, WorkCost: 1200, PhaseRestriction: "CONSTRUCTION", Target: "Self", Transferable: false},
		{CardID: "W002", CardName: "Framing Work", CardType: CardTypeWork, Cost: 800, WorkCost: 800, PhaseRestriction: "CONSTRUCTION", Target: "Self", Transferable: false},
		{CardID: "W003", CardName: "Electrical Work", CardType: CardTypeWork, Cost: 600, WorkCost: 600, PhaseRestriction: "CONSTRUCTION", Target: "Self", Transferable: false},
		{CardID: "B001", CardName: "Small Business Loan", CardType: CardTypeBank, Cost: 0, LoanAmount: 200000, LoanRate: 5, PhaseRestriction: "Any", Target: "Self", Transferable: false},
		{CardID: "B002", CardName: "Construction Loan", CardType: CardTypeBank, Cost: 0, LoanAmount: 400000, LoanRate: 7, PhaseRestriction: "Any", Target: "Self", Transferable: false},
		{CardID: "E001", CardName: "Permit Expeditor", CardType: CardTypeExpeditor, Cost: 500, PhaseRestriction: "Any", Target: "Self", Transferable: true, TickModifier: -2},
		{CardID: "E002", CardName: "City Contact", CardType: CardTypeExpeditor, Cost: 300, PhaseRestriction: "Any", Target: "Self", Transferable: true, DrawCards: "1 W"},
		{CardID: "E003", CardName: "Red Tape", CardType: CardTypeExpeditor, Cost: 0, PhaseRestriction: "Any", Target: "All Players", Transferable: true, TickModifier: 3},
		{CardID: "L001", CardName: "Night Classes", CardType: CardTypeLife, Cost: 200, PhaseRestriction: "Any", Duration: 3, Target: "Self", Transferable: false, TickModifier: 1},
		{CardID: "L002", CardName: "Family Emergency", CardType: CardTypeLife, Cost: 0, PhaseRestriction: "Any", Target: "Self", Transferable: false, TickModifier: 5},
		{CardID: "I001", CardName: "Angel Investor", CardType: CardTypeInvestor, Cost: 0, InvestmentAmount: 150000, PhaseRestriction: "Any", Target: "Self", Transferable: false},
	}
}
