package feedstats

import "sort"

// RatioScore is favorites plus retweets minus replies.
func RatioScore(p Post) int {
	return p.FavoriteCount + p.RetweetCount - p.ReplyCount
}

// TopPosts returns up to n posts authored by handle with the highest ratio
// score. An empty handle considers every post.
func TopPosts(posts []Post, handle string, n int) []Post {
	var own []Post
	key := handleKey(handle)
	for _, p := range posts {
		if key == "" || handleKey(p.Author.Handle) == key {
			own = append(own, p)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return RatioScore(own[i]) > RatioScore(own[j]) })
	return limitPosts(own, n)
}

// WorstPosts returns up to n posts with the lowest ratio score.
func WorstPosts(posts []Post, n int) []Post {
	all := append([]Post(nil), posts...)
	sort.SliceStable(all, func(i, j int) bool { return RatioScore(all[i]) < RatioScore(all[j]) })
	return limitPosts(all, n)
}

func limitPosts(posts []Post, n int) []Post {
	if posts == nil {
		return []Post{}
	}
	if n > 0 && len(posts) > n {
		return posts[:n]
	}
	return posts
}
