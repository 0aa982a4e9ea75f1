package export

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"mcapedit/internal/model"
	"mcapedit/internal/summary"
)

// TopicSet is the plain set of topic names handed from the host to the re-encoder.
type TopicSet map[string]struct{}

// NewTopicSet returns a set holding topics.
func NewTopicSet(topics ...string) TopicSet {
	set := make(TopicSet, len(topics))
	for _, topic := range topics {
		set[topic] = struct{}{}
	}
	return set
}

// Add inserts topic.
func (s TopicSet) Add(topic string) { s[topic] = struct{}{} }

// Remove deletes topic.
func (s TopicSet) Remove(topic string) { delete(s, topic) }

// Contains reports whether topic is selected.
func (s TopicSet) Contains(topic string) bool {
	_, ok := s[topic]
	return ok
}

// Sorted returns the selected topics in name order.
func (s TopicSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for topic := range s {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

// SelectTopics builds a selection from the index. An empty include list
// selects every topic. Entries may be exact topic names or path.Match
// patterns such as "/camera/*"; an entry that matches nothing fails with
// model.ErrUnknownTopic.
func SelectTopics(idx *summary.Index, include, exclude []string) (TopicSet, error) {
	names := idx.TopicNames()

	set := TopicSet{}
	if len(include) == 0 {
		for _, name := range names {
			set.Add(name)
		}
	} else {
		for _, entry := range include {
			matched, err := matchTopics(names, entry)
			if err != nil {
				return nil, err
			}
			for _, name := range matched {
				set.Add(name)
			}
		}
	}

	for _, entry := range exclude {
		matched, err := matchTopics(names, entry)
		if err != nil {
			return nil, err
		}
		for _, name := range matched {
			set.Remove(name)
		}
	}
	return set, nil
}

func matchTopics(names []string, entry string) ([]string, error) {
	entry = strings.TrimSpace(entry)
	if !strings.ContainsAny(entry, "*?[") {
		for _, name := range names {
			if name == entry {
				return []string{name}, nil
			}
		}
		return nil, &model.UnknownTopicError{Topic: entry}
	}

	var matched []string
	for _, name := range names {
		ok, err := path.Match(entry, name)
		if err != nil {
			return nil, fmt.Errorf("invalid topic pattern %q: %w", entry, err)
		}
		if ok {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return nil, &model.UnknownTopicError{Topic: entry}
	}
	return matched, nil
}
