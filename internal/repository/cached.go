package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/jobprep/internal/cache"
	"github.com/hitoshi/jobprep/internal/model"
)

// 読み取りはタグ付きでキャッシュし、変更は確定後に同期的にイベントを発行する。
// キャッシュから返す値は呼び出し側での書き換えに備えて複製する。
// 利用件数は上限判定に使うためキャッシュしない。

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneAll[T any](vs []*T) []*T {
	if vs == nil {
		return nil
	}
	out := make([]*T, len(vs))
	for i, v := range vs {
		out[i] = clone(v)
	}
	return out
}

func cacheKey(r cache.Resource, scope, id string) string {
	return fmt.Sprintf("%s:%s:%s", r, scope, id)
}

// CachedUserRepo はユーザー取得をキャッシュするUserRepository。
type CachedUserRepo struct {
	next      UserRepository
	cache     *cache.TagCache
	publisher cache.Publisher
}

// NewCachedUserRepo はCachedUserRepoを生成する。
func NewCachedUserRepo(next UserRepository, c *cache.TagCache) *CachedUserRepo {
	return &CachedUserRepo{next: next, cache: c, publisher: publisherFor(c)}
}

func (r *CachedUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceUsers), cache.IDTag(id, cache.ResourceUsers)}
	u, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceUsers, "id", id), tags,
		func(ctx context.Context) (*model.User, error) {
			return r.next.FindByID(ctx, id)
		})
	return clone(u), err
}

// FindByEmail はサインイン時のパスワード照合に使うためキャッシュしない。
func (r *CachedUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *CachedUserRepo) Create(ctx context.Context, user *model.User) error {
	if err := r.next.Create(ctx, user); err != nil {
		return err
	}
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceUsers, ID: user.ID})
	return nil
}

func (r *CachedUserRepo) UpdateProfile(ctx context.Context, id, name string, image *string) (*model.User, error) {
	u, err := r.next.UpdateProfile(ctx, id, name, image)
	if err != nil || u == nil {
		return u, err
	}
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceUsers, ID: id})
	return u, nil
}

func (r *CachedUserRepo) UpdatePlan(ctx context.Context, id string, plan model.Plan) (*model.User, error) {
	u, err := r.next.UpdatePlan(ctx, id, plan)
	if err != nil || u == nil {
		return u, err
	}
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceUsers, ID: id})
	return u, nil
}

// DeleteByID はユーザーを削除し、CASCADE削除される配下のリソースもまとめて無効化する。
func (r *CachedUserRepo) DeleteByID(ctx context.Context, id string) error {
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceUsers, ID: id})
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceJobInfos, OwnerID: id})
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceInterviews})
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceQuestions})
	return nil
}

// CachedJobInfoRepo は求人情報の取得をキャッシュするJobInfoRepository。
type CachedJobInfoRepo struct {
	next      JobInfoRepository
	cache     *cache.TagCache
	publisher cache.Publisher
}

// NewCachedJobInfoRepo はCachedJobInfoRepoを生成する。
func NewCachedJobInfoRepo(next JobInfoRepository, c *cache.TagCache) *CachedJobInfoRepo {
	return &CachedJobInfoRepo{next: next, cache: c, publisher: publisherFor(c)}
}

func (r *CachedJobInfoRepo) FindByID(ctx context.Context, id string) (*model.JobInfo, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceJobInfos), cache.IDTag(id, cache.ResourceJobInfos)}
	j, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceJobInfos, "id", id), tags,
		func(ctx context.Context) (*model.JobInfo, error) {
			return r.next.FindByID(ctx, id)
		})
	return clone(j), err
}

func (r *CachedJobInfoRepo) ListByUserID(ctx context.Context, userID string) ([]*model.JobInfo, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceJobInfos), cache.UserTag(userID, cache.ResourceJobInfos)}
	list, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceJobInfos, "user", userID), tags,
		func(ctx context.Context) ([]*model.JobInfo, error) {
			return r.next.ListByUserID(ctx, userID)
		})
	return cloneAll(list), err
}

func (r *CachedJobInfoRepo) Create(ctx context.Context, j *model.JobInfo) error {
	if err := r.next.Create(ctx, j); err != nil {
		return err
	}
	r.publisher.Publish(ctx, jobInfoChanged(j))
	return nil
}

func (r *CachedJobInfoRepo) Update(ctx context.Context, j *model.JobInfo) error {
	if err := r.next.Update(ctx, j); err != nil {
		return err
	}
	r.publisher.Publish(ctx, jobInfoChanged(j))
	return nil
}

// Delete は求人情報を削除し、配下の面接と質問の一覧も無効化する。
// 所有者タグを特定するため削除前に行を読み込む。
func (r *CachedJobInfoRepo) Delete(ctx context.Context, id string) error {
	existing, err := r.next.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	ev := cache.ResourceChanged{Resource: cache.ResourceJobInfos, ID: id}
	if existing != nil {
		ev.OwnerID = existing.UserID
	}
	r.publisher.Publish(ctx, ev)
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceInterviews, OwnerID: id})
	r.publisher.Publish(ctx, cache.ResourceChanged{Resource: cache.ResourceQuestions, OwnerID: id})
	return nil
}

func jobInfoChanged(j *model.JobInfo) cache.ResourceChanged {
	return cache.ResourceChanged{Resource: cache.ResourceJobInfos, ID: j.ID, OwnerID: j.UserID}
}

// CachedInterviewRepo は面接の取得をキャッシュするInterviewRepository。
type CachedInterviewRepo struct {
	next      InterviewRepository
	cache     *cache.TagCache
	publisher cache.Publisher
}

// NewCachedInterviewRepo はCachedInterviewRepoを生成する。
func NewCachedInterviewRepo(next InterviewRepository, c *cache.TagCache) *CachedInterviewRepo {
	return &CachedInterviewRepo{next: next, cache: c, publisher: publisherFor(c)}
}

func (r *CachedInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceInterviews), cache.IDTag(id, cache.ResourceInterviews)}
	iv, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceInterviews, "id", id), tags,
		func(ctx context.Context) (*model.Interview, error) {
			return r.next.FindByID(ctx, id)
		})
	return clone(iv), err
}

func (r *CachedInterviewRepo) ListByJobInfoID(ctx context.Context, jobInfoID string) ([]*model.Interview, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceInterviews), cache.JobInfoTag(jobInfoID, cache.ResourceInterviews)}
	list, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceInterviews, "jobInfo", jobInfoID), tags,
		func(ctx context.Context) ([]*model.Interview, error) {
			return r.next.ListByJobInfoID(ctx, jobInfoID)
		})
	return cloneAll(list), err
}

func (r *CachedInterviewRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	return r.next.CountByUserID(ctx, userID)
}

func (r *CachedInterviewRepo) Create(ctx context.Context, iv *model.Interview) error {
	if err := r.next.Create(ctx, iv); err != nil {
		return err
	}
	r.publisher.Publish(ctx, interviewChanged(iv))
	return nil
}

func (r *CachedInterviewRepo) CreateWithinLimit(ctx context.Context, userID string, limit int, iv *model.Interview) (bool, error) {
	ok, err := r.next.CreateWithinLimit(ctx, userID, limit, iv)
	if err != nil || !ok {
		return ok, err
	}
	r.publisher.Publish(ctx, interviewChanged(iv))
	return true, nil
}

func (r *CachedInterviewRepo) Update(ctx context.Context, iv *model.Interview) error {
	if err := r.next.Update(ctx, iv); err != nil {
		return err
	}
	r.publisher.Publish(ctx, interviewChanged(iv))
	return nil
}

func interviewChanged(iv *model.Interview) cache.ResourceChanged {
	return cache.ResourceChanged{Resource: cache.ResourceInterviews, ID: iv.ID, OwnerID: iv.JobInfoID}
}

// CachedQuestionRepo は質問の取得をキャッシュするQuestionRepository。
type CachedQuestionRepo struct {
	next      QuestionRepository
	cache     *cache.TagCache
	publisher cache.Publisher
}

// NewCachedQuestionRepo はCachedQuestionRepoを生成する。
func NewCachedQuestionRepo(next QuestionRepository, c *cache.TagCache) *CachedQuestionRepo {
	return &CachedQuestionRepo{next: next, cache: c, publisher: publisherFor(c)}
}

func (r *CachedQuestionRepo) FindByID(ctx context.Context, id string) (*model.Question, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceQuestions), cache.IDTag(id, cache.ResourceQuestions)}
	q, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceQuestions, "id", id), tags,
		func(ctx context.Context) (*model.Question, error) {
			return r.next.FindByID(ctx, id)
		})
	return clone(q), err
}

func (r *CachedQuestionRepo) ListByJobInfoID(ctx context.Context, jobInfoID string) ([]*model.Question, error) {
	tags := []cache.Tag{cache.GlobalTag(cache.ResourceQuestions), cache.JobInfoTag(jobInfoID, cache.ResourceQuestions)}
	list, err := cache.Fetch(ctx, r.cache, cacheKey(cache.ResourceQuestions, "jobInfo", jobInfoID), tags,
		func(ctx context.Context) ([]*model.Question, error) {
			return r.next.ListByJobInfoID(ctx, jobInfoID)
		})
	return cloneAll(list), err
}

func (r *CachedQuestionRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	return r.next.CountByUserID(ctx, userID)
}

func (r *CachedQuestionRepo) Create(ctx context.Context, q *model.Question) error {
	if err := r.next.Create(ctx, q); err != nil {
		return err
	}
	r.publisher.Publish(ctx, questionChanged(q))
	return nil
}

func (r *CachedQuestionRepo) CreateWithinLimit(ctx context.Context, userID string, limit int, q *model.Question) (bool, error) {
	ok, err := r.next.CreateWithinLimit(ctx, userID, limit, q)
	if err != nil || !ok {
		return ok, err
	}
	r.publisher.Publish(ctx, questionChanged(q))
	return true, nil
}

func questionChanged(q *model.Question) cache.ResourceChanged {
	return cache.ResourceChanged{Resource: cache.ResourceQuestions, ID: q.ID, OwnerID: q.JobInfoID}
}

// nopPublisher はキャッシュ無効時の発行先。
type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, cache.ResourceChanged) {}

func publisherFor(c *cache.TagCache) cache.Publisher {
	if c == nil {
		return nopPublisher{}
	}
	return c
}

// compile-time interface check
var (
	_ UserRepository      = (*CachedUserRepo)(nil)
	_ JobInfoRepository   = (*CachedJobInfoRepo)(nil)
	_ InterviewRepository = (*CachedInterviewRepo)(nil)
	_ QuestionRepository  = (*CachedQuestionRepo)(nil)
)
