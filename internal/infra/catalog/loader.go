package catalog

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
)

// File is the layout of the quest seed file.
type File struct {
	Quests []*domain.Quest `toml:"quests"`
}

// LoadFile reads and validates a TOML quest seed file. Every invalid quest
// is reported, not only the first one.
func LoadFile(path string) ([]*domain.Quest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open quest catalog")
	}
	defer file.Close()

	var f File
	dec := toml.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	var problems []error
	seen := make(map[string]bool, len(f.Quests))
	for _, q := range f.Quests {
		if seen[q.ID] {
			problems = append(problems, errors.Errorf("duplicate quest id %s", q.ID))
			continue
		}
		seen[q.ID] = true

		for i := range q.Objectives {
			q.Objectives[i].QuestID = q.ID
		}
		for i := range q.Rewards {
			q.Rewards[i].QuestID = q.ID
		}
		if err := q.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	if err := errors.Join(problems...); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return f.Quests, nil
}
