package element

// chart[attack-1][defense-1] holds the single-type multiplier.
// Rows and columns follow the Type declaration order, Normal through Steel.
var chart = [Count][Count]float64{
	/*            NOR  FIR  WAT  ELE  GRA  ICE  FIG  POI  GRO  FLY  PSY  BUG  ROC  GHO  DRA  DAR  STE */
	/* NOR */ {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, .5, 0, 1, 1, .5},
	/* FIR */ {1, .5, .5, 1, 2, 2, 1, 1, 1, 1, 1, 2, .5, 1, .5, 1, 2},
	/* WAT */ {1, 2, .5, 1, .5, 1, 1, 1, 2, 1, 1, 1, 2, 1, .5, 1, 1},
	/* ELE */ {1, 1, 2, .5, .5, 1, 1, 1, 0, 2, 1, 1, 1, 1, .5, 1, 1},
	/* GRA */ {1, .5, 2, 1, .5, 1, 1, .5, 2, .5, 1, .5, 2, 1, .5, 1, .5},
	/* ICE */ {1, .5, .5, 1, 2, .5, 1, 1, 2, 2, 1, 1, 1, 1, 2, 1, .5},
	/* FIG */ {2, 1, 1, 1, 1, 2, 1, .5, 1, .5, .5, .5, 2, 0, 1, 2, 2},
	/* POI */ {1, 1, 1, 1, 2, 1, 1, .5, .5, 1, 1, 1, .5, .5, 1, 1, 0},
	/* GRO */ {1, 2, 1, 2, .5, 1, 1, 2, 1, 0, 1, .5, 2, 1, 1, 1, 2},
	/* FLY */ {1, 1, 1, .5, 2, 1, 2, 1, 1, 1, 1, 2, .5, 1, 1, 1, .5},
	/* PSY */ {1, 1, 1, 1, 1, 1, 2, 2, 1, 1, .5, 1, 1, 1, 1, 0, .5},
	/* BUG */ {1, .5, 1, 1, 2, 1, .5, .5, 1, .5, 2, 1, 1, .5, 1, 2, .5},
	/* ROC */ {1, 2, 1, 1, 1, 2, .5, 1, .5, 2, 1, 2, 1, 1, 1, 1, .5},
	/* GHO */ {0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 1, 1, 2, 1, .5, 1},
	/* DRA */ {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 1, .5},
	/* DAR */ {1, 1, 1, 1, 1, 1, .5, 1, 1, 1, 2, 1, 1, 2, 1, .5, .5},
	/* STE */ {1, .5, .5, .5, 1, 2, 1, 1, 1, 1, 1, 1, 2, 1, 1, 1, .5},
}

// Effectiveness returns the multiplier for a move of type attack hitting a
// single defending type.
//
// Precondition: attack and defense are valid Types.
// Postcondition: Returns 1 when either argument is None; otherwise one of
// 0, 0.5, 1 or 2.
func Effectiveness(attack, defense Type) float64 {
	if attack == None || defense == None {
		return 1
	}
	if !attack.Valid() || !defense.Valid() {
		panic("element: Effectiveness called with an invalid type")
	}
	return chart[attack-1][defense-1]
}

// Combined returns the product of the lookups against both defending types.
//
// Postcondition: Returns one of 0, 0.25, 0.5, 1, 2 or 4.
func Combined(attack, primary, secondary Type) float64 {
	return Effectiveness(attack, primary) * Effectiveness(attack, secondary)
}
