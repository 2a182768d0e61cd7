package events

// Replicated tables. The change feed publishes one channel per table
// under the feed. prefix; subscribers pattern-match feed.*.
const (
	TableConversations = "conversations"
	TableMessages      = "messages"
	TableMembers       = "conversation_members"
	TableInvitations   = "conversation_invitations"
	TableBroadcasts    = "broadcast_messages"
)

const ChannelPrefix = "feed."

func ChannelFor(table string) string {
	return ChannelPrefix + table
}
