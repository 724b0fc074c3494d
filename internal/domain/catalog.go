package domain

// NewCatalog validates stage data and returns an immutable catalog value.
// It fails with *CatalogError if the sequence is empty, a stage has no
// options, a stage does not have exactly one correct option, or any stage or
// option ID collides. Observed game data always carries exactly one correct
// option per stage; zero and multi-correct are treated as authoring mistakes
// rather than silently picking one.
func NewCatalog(gameID string, stages []Stage) (Catalog, error) {
	if gameID == "" {
		return Catalog{}, &CatalogError{GameID: gameID, Reason: "missing game id"}
	}
	if len(stages) == 0 {
		return Catalog{}, &CatalogError{GameID: gameID, Reason: "catalog has no stages"}
	}

	seenStages := make(map[string]struct{}, len(stages))
	for _, stage := range stages {
		if stage.ID == "" {
			return Catalog{}, &CatalogError{GameID: gameID, Reason: "stage with empty id"}
		}
		if _, dup := seenStages[stage.ID]; dup {
			return Catalog{}, &CatalogError{GameID: gameID, StageID: stage.ID, Reason: "duplicate stage id"}
		}
		seenStages[stage.ID] = struct{}{}

		if len(stage.Options) == 0 {
			return Catalog{}, &CatalogError{GameID: gameID, StageID: stage.ID, Reason: "stage has no options"}
		}

		correct := 0
		seenOptions := make(map[string]struct{}, len(stage.Options))
		for _, opt := range stage.Options {
			if opt.ID == "" {
				return Catalog{}, &CatalogError{GameID: gameID, StageID: stage.ID, Reason: "option with empty id"}
			}
			if _, dup := seenOptions[opt.ID]; dup {
				return Catalog{}, &CatalogError{GameID: gameID, StageID: stage.ID, Reason: "duplicate option id " + opt.ID}
			}
			seenOptions[opt.ID] = struct{}{}
			if opt.Correct {
				correct++
			}
		}
		switch {
		case correct == 0:
			return Catalog{}, &CatalogError{GameID: gameID, StageID: stage.ID, Reason: "no correct option"}
		case correct > 1:
			return Catalog{}, &CatalogError{GameID: gameID, StageID: stage.ID, Reason: "more than one correct option"}
		}
	}

	copied := make([]Stage, len(stages))
	copy(copied, stages)
	return Catalog{GameID: gameID, Stages: copied}, nil
}
