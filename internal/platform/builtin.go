package platform

import (
	"github.com/rewired-gh/outlierscope/internal/engagement"
	"github.com/rewired-gh/outlierscope/internal/models"
	"github.com/rewired-gh/outlierscope/internal/normalize"
)

// Built-in platform names.
const (
	Instagram = "instagram"
	TikTok    = "tiktok"
	X         = "x"
	YouTube   = "youtube"
)

// aliases maps alternative names onto built-in profiles.
var aliases = map[string]string{
	"ig":      Instagram,
	"twitter": X,
	"yt":      YouTube,
}

// Field tables follow the Apify scraper (Instagram, TikTok, X) and TubeLab
// (YouTube) record shapes. TikTok also accepts the flattened author and music
// fields written by the fetch step.
func builtins() []Profile {
	return []Profile{
		{
			Name:       Instagram,
			CountLabel: LabelPosts,
			Weights: engagement.Weights{
				models.Likes:    1,
				models.Comments: 3,
				models.Views:    0.1,
			},
			Fields: normalize.FieldMap{
				ID:              []string{"id", "shortCode"},
				URL:             []string{"url", "inputUrl"},
				Text:            []string{"caption"},
				CreatedAt:       []string{"timestamp"},
				AuthorUsername:  []string{"ownerUsername", "owner.username"},
				AuthorFollowers: []string{"ownerFollowersCount", "followersCount", "owner.followersCount"},
				AuthorVerified:  []string{"ownerIsVerified", "owner.isVerified"},
				Metrics: map[models.Interaction][]string{
					models.Likes:    {"likesCount"},
					models.Comments: {"commentsCount"},
					models.Views:    {"videoViewCount", "videoPlayCount", "igPlayCount"},
				},
				Hashtags:  []string{"hashtags"},
				MediaURLs: []string{"images", "displayUrl"},
				VideoURL:  []string{"videoUrl"},
				Sound:     []string{"musicInfo.song_name", "musicInfo.songName"},
			},
			Video: normalize.VideoRule{
				TypeFields: []string{"type", "productType"},
				TypeValues: []string{"Video", "clips"},
			},
			Extras: Extras{Sounds: true},
		},
		{
			Name:       TikTok,
			CountLabel: LabelVideos,
			Weights: engagement.Weights{
				models.Likes:    1,
				models.Comments: 3,
				models.Shares:   2,
				models.Saves:    2,
				models.Views:    0.05,
			},
			Fields: normalize.FieldMap{
				ID:              []string{"id"},
				URL:             []string{"webVideoUrl", "url"},
				Text:            []string{"text", "desc"},
				CreatedAt:       []string{"createTimeISO", "createTime"},
				AuthorUsername:  []string{"authorUsername", "authorMeta.name", "author.uniqueId"},
				AuthorFollowers: []string{"authorFollowers", "authorMeta.fans", "authorStats.followerCount"},
				AuthorVerified:  []string{"authorVerified", "authorMeta.verified"},
				Metrics: map[models.Interaction][]string{
					models.Likes:    {"diggCount", "stats.diggCount"},
					models.Comments: {"commentCount", "stats.commentCount"},
					models.Shares:   {"shareCount", "stats.shareCount"},
					models.Saves:    {"collectCount", "stats.collectCount"},
					models.Views:    {"playCount", "stats.playCount"},
				},
				Hashtags:  []string{"hashtags"},
				MediaURLs: []string{"coverUrl", "covers", "videoMeta.coverUrl"},
				VideoURL:  []string{"videoMeta.downloadAddr", "webVideoUrl"},
				Sound:     []string{"musicName", "musicMeta.musicName", "music.title"},
			},
			Video: normalize.VideoRule{
				TypeFields: []string{"type"},
				TypeValues: []string{"video"},
			},
			Extras: Extras{Sounds: true},
		},
		{
			Name:       X,
			CountLabel: LabelPosts,
			Weights: engagement.Weights{
				models.Likes:     1,
				models.Replies:   3,
				models.Shares:    2,
				models.Quotes:    2,
				models.Bookmarks: 4,
			},
			Fields: normalize.FieldMap{
				ID:              []string{"id", "id_str"},
				URL:             []string{"url", "twitterUrl"},
				Text:            []string{"fullText", "text", "full_text"},
				CreatedAt:       []string{"createdAt", "created_at"},
				AuthorUsername:  []string{"author.userName", "author.screen_name", "user.screen_name"},
				AuthorFollowers: []string{"author.followers", "author.followers_count", "user.followers_count"},
				AuthorVerified:  []string{"author.isBlueVerified", "author.isVerified", "user.verified"},
				Metrics: map[models.Interaction][]string{
					models.Likes:     {"likeCount", "favorite_count"},
					models.Replies:   {"replyCount", "reply_count"},
					models.Shares:    {"retweetCount", "retweet_count"},
					models.Quotes:    {"quoteCount", "quote_count"},
					models.Bookmarks: {"bookmarkCount", "bookmark_count"},
					models.Views:     {"viewCount", "views.count"},
				},
				Hashtags:  []string{"entities.hashtags"},
				MediaURLs: []string{"media", "extendedEntities.media", "entities.media"},
				VideoURL:  []string{"videoUrl", "video.url"},
				Quote:     []string{"isQuote", "is_quote_status"},
			},
			Video: normalize.VideoRule{
				Flags:      []string{"isVideo"},
				TypeFields: []string{"mediaType", "media_type"},
				TypeValues: []string{"video", "animated_gif"},
			},
			Extras: Extras{Mentions: true, ContentPatterns: true, Slim: true},
		},
		{
			Name:       YouTube,
			CountLabel: LabelVideos,
			// Local choice; TubeLab records carry no baseline the detector uses.
			Weights: engagement.Weights{
				models.Likes:    1,
				models.Comments: 3,
				models.Views:    0.02,
			},
			Fields: normalize.FieldMap{
				ID:              []string{"id", "videoId"},
				URL:             []string{"url"},
				Text:            []string{"title", "snippet.title"},
				CreatedAt:       []string{"publishedAt", "snippet.publishedAt"},
				AuthorUsername:  []string{"channel.title", "channelTitle", "snippet.channelTitle"},
				AuthorFollowers: []string{"channel.subscriberCount", "subscriberCount", "channel.subscribers"},
				Metrics: map[models.Interaction][]string{
					models.Likes:    {"statistics.likeCount", "likeCount"},
					models.Comments: {"statistics.commentCount", "commentCount"},
					models.Views:    {"statistics.viewCount", "viewCount", "views"},
				},
				Hashtags:  []string{"tags", "snippet.tags"},
				MediaURLs: []string{"thumbnail", "thumbnails.high.url"},
				VideoURL:  []string{"url"},
			},
			Video: normalize.VideoRule{
				TypeFields: []string{"kind"},
				TypeValues: []string{"youtube#video", "video"},
			},
		},
	}
}
