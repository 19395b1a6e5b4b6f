// Package cache はタグ単位で無効化できるインプロセスの読み取りキャッシュを提供する。
package cache

import "fmt"

// Resource はキャッシュ対象のリソース種別。
type Resource string

const (
	ResourceUsers      Resource = "users"
	ResourceJobInfos   Resource = "jobInfos"
	ResourceInterviews Resource = "interviews"
	ResourceQuestions  Resource = "questions"
)

// Tag はキャッシュエントリに付与する無効化用のラベル。
type Tag string

// GlobalTag はリソース種別全体のタグを返す。
func GlobalTag(r Resource) Tag {
	return Tag(fmt.Sprintf("global:%s", r))
}

// UserTag はユーザー所有のリソースのタグを返す。
func UserTag(userID string, r Resource) Tag {
	return Tag(fmt.Sprintf("user:%s:%s", userID, r))
}

// IDTag は特定レコードのタグを返す。
func IDTag(id string, r Resource) Tag {
	return Tag(fmt.Sprintf("id:%s:%s", id, r))
}

// JobInfoTag は求人情報配下のリソースのタグを返す。
func JobInfoTag(jobInfoID string, r Resource) Tag {
	return Tag(fmt.Sprintf("jobInfo:%s:%s", jobInfoID, r))
}

// OwnerTag はリソース種別ごとの所有者スコープのタグを返す。
// 求人情報はユーザー、面接と質問は求人情報が所有者となる。
// ユーザー自身には所有者スコープがないため空文字を返す。
func OwnerTag(r Resource, ownerID string) Tag {
	if ownerID == "" {
		return ""
	}
	switch r {
	case ResourceJobInfos:
		return UserTag(ownerID, r)
	case ResourceInterviews, ResourceQuestions:
		return JobInfoTag(ownerID, r)
	default:
		return ""
	}
}

// ResourceChanged はリソースの作成・更新・削除が確定したことを表すイベント。
type ResourceChanged struct {
	Resource Resource
	ID       string
	// OwnerID は所有者のID。求人情報ならユーザーID、面接・質問なら求人情報ID。
	OwnerID string
}

// Tags はイベントによって無効化すべきタグを返す。
// グローバル、所有者スコープ、ID の3粒度を対象とする。
func (e ResourceChanged) Tags() []Tag {
	tags := []Tag{GlobalTag(e.Resource)}
	if owner := OwnerTag(e.Resource, e.OwnerID); owner != "" {
		tags = append(tags, owner)
	}
	if e.ID != "" {
		tags = append(tags, IDTag(e.ID, e.Resource))
	}
	return tags
}
