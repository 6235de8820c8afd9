package onebot

import "strings"

// EventFactory produces an empty concrete event for one decode attempt.
type EventFactory func() Event

// taxonomy maps a taxonomy key to the factories registered at exactly that
// key. Populated at package init; read-only afterwards, so lookups need no
// locking.
var taxonomy = map[string][]EventFactory{}

func registerEvent(key string, f EventFactory) {
	taxonomy[key] = append(taxonomy[key], f)
}

// lookupEvent returns the ordered candidate list for key: factories
// registered at the full key first, then at each shorter prefix
// ("a.b.c" → "a.b" → "a"), and always the universal fallback last.
// The result is never empty, even for a key nothing was registered under.
func lookupEvent(key string) []EventFactory {
	var out []EventFactory
	for key != "" {
		out = append(out, taxonomy[key]...)
		i := strings.LastIndexByte(key, '.')
		if i < 0 {
			break
		}
		key = key[:i]
	}
	out = append(out, func() Event { return new(BaseEvent) })
	return out
}

func init() {
	registerEvent("message", func() Event { return new(MessageEvent) })
	registerEvent("message.private", func() Event { return new(PrivateMessageEvent) })
	registerEvent("message.group", func() Event { return new(GroupMessageEvent) })

	registerEvent("notice", func() Event { return new(NoticeEvent) })
	registerEvent("notice.group_upload", func() Event { return new(GroupUploadNoticeEvent) })
	registerEvent("notice.group_admin", func() Event { return new(GroupAdminNoticeEvent) })
	registerEvent("notice.group_decrease", func() Event { return new(GroupDecreaseNoticeEvent) })
	registerEvent("notice.group_increase", func() Event { return new(GroupIncreaseNoticeEvent) })
	registerEvent("notice.group_ban", func() Event { return new(GroupBanNoticeEvent) })
	registerEvent("notice.friend_add", func() Event { return new(FriendAddNoticeEvent) })
	registerEvent("notice.group_recall", func() Event { return new(GroupRecallNoticeEvent) })
	registerEvent("notice.friend_recall", func() Event { return new(FriendRecallNoticeEvent) })
	registerEvent("notice.notify.poke", func() Event { return new(PokeNotifyEvent) })
	registerEvent("notice.notify.lucky_king", func() Event { return new(LuckyKingNotifyEvent) })
	registerEvent("notice.notify.honor", func() Event { return new(HonorNotifyEvent) })
	registerEvent("notice.notify", func() Event { return new(NotifyEvent) })

	registerEvent("request", func() Event { return new(RequestEvent) })
	registerEvent("request.friend", func() Event { return new(FriendRequestEvent) })
	registerEvent("request.group", func() Event { return new(GroupRequestEvent) })

	registerEvent("meta_event", func() Event { return new(MetaEvent) })
	registerEvent("meta_event.lifecycle", func() Event { return new(LifecycleMetaEvent) })
	registerEvent("meta_event.heartbeat", func() Event { return new(HeartbeatMetaEvent) })
}
