package model

import "time"

// Favorite is a (user, movie) pair in `user_favorites`. The pair's
// existence means the movie is favorited.
type Favorite struct {
	UserID    uint64
	MovieID   uint64
	CreatedAt time.Time
}

// Friendship is a directed edge user1 → user2 in `user_friends`. No
// mirrored edge is implied.
type Friendship struct {
	User1ID   uint64
	User2ID   uint64
	CreatedAt time.Time
}
