package realtime

// TopicProjectsState carries the full project list: a snapshot on
// subscribe, then an event with the complete new list after every
// mutation. Receivers replace their local collection wholesale.
const TopicProjectsState = "projects.state"

func IsSupportedTopic(topic string) bool {
	return topic == TopicProjectsState
}
