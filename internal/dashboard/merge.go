package dashboard

import (
	"strings"

	"github.com/pulso-app/pulso/internal/models"
)

// MergePostCollections folds a newly fetched collection into the accumulated
// one. Posts are deduplicated by id with the previously held copy winning on
// collision, then reordered so image-bearing posts render first. Collection
// metadata always comes from the newest response.
func MergePostCollections(prev, next *models.PostCollection) *models.PostCollection {
	merged := *next

	if prev == nil {
		merged.Posts = reorderImagesFirst(next.Posts)
		return &merged
	}

	all := make([]models.Post, 0, len(prev.Posts)+len(next.Posts))
	all = append(all, prev.Posts...)
	all = append(all, next.Posts...)

	merged.Posts = reorderImagesFirst(dedupePosts(all))
	merged.PostsCreated = len(merged.Posts)
	return &merged
}

// dedupePosts keeps the first occurrence of each post id and drops the rest
func dedupePosts(posts []models.Post) []models.Post {
	seen := make(map[int]bool, len(posts))
	unique := make([]models.Post, 0, len(posts))

	for _, post := range posts {
		if seen[post.ID] {
			continue
		}
		seen[post.ID] = true
		unique = append(unique, post)
	}

	return unique
}

// reorderImagesFirst partitions posts into image-bearing and image-less,
// preserving relative order within each partition
func reorderImagesFirst(posts []models.Post) []models.Post {
	withImages := make([]models.Post, 0, len(posts))
	withoutImages := make([]models.Post, 0)

	for _, post := range posts {
		if hasImage(post) {
			withImages = append(withImages, post)
		} else {
			withoutImages = append(withoutImages, post)
		}
	}

	return append(withImages, withoutImages...)
}

func hasImage(post models.Post) bool {
	return strings.TrimSpace(post.Image) != ""
}
