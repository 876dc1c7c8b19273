package event

// Event kinds with assigned protocol meanings.
const (
	KindProfileMetadata        int = 0
	KindTextNote               int = 1
	KindRecommendServer        int = 2
	KindContactList            int = 3
	KindEncryptedDirectMessage int = 4
	KindDeletion               int = 5
	KindRepost                 int = 6
	KindReaction               int = 7
	KindChannelCreation        int = 40
	KindChannelMetadata        int = 41
	KindChannelMessage         int = 42
	KindChannelHideMessage     int = 43
	KindChannelMuteUser        int = 44
	KindFileMetadata           int = 1063
	KindZapRequest             int = 9734
	KindZap                    int = 9735
	KindMuteList               int = 10000
	KindPinList                int = 10001
	KindRelayListMetadata      int = 10002
	KindClientAuthentication   int = 22242
	KindCategorizedPeopleList  int = 30000
	KindCategorizedBookmarks   int = 30001
	KindProfileBadges          int = 30008
	KindBadgeDefinition        int = 30009
	KindArticle                int = 30023
	KindApplicationSpecific    int = 30078
)
