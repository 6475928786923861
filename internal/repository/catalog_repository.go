package repository

import (
	"context"
	"errors"
	"time"

	"video-service/internal/media"
	"video-service/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepo reads and writes the categories and videos collections.
type CatalogRepo struct {
	categories *mongo.Collection
	videos     *mongo.Collection
}

func NewCatalogRepo(db *mongo.Database) *CatalogRepo {
	return &CatalogRepo{
		categories: db.Collection("categories"),
		videos:     db.Collection("videos"),
	}
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]media.Category, error) {
	cur, err := r.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []media.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepo) GetCategory(ctx context.Context, id string) (*media.Category, error) {
	var c media.Category
	err := r.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &utils.NotFoundError{Resource: "category", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepo) CategoryByName(ctx context.Context, name string) (*media.Category, error) {
	var c media.Category
	err := r.categories.FindOne(ctx, bson.M{"name": name}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &utils.NotFoundError{Resource: "category", ID: name}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepo) InsertCategory(ctx context.Context, c *media.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.categories.InsertOne(ctx, c)
	return err
}

func (r *CatalogRepo) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return &utils.NotFoundError{Resource: "category", ID: id}
	}
	return nil
}

func (r *CatalogRepo) CountVideosInCategory(ctx context.Context, categoryID string) (int64, error) {
	return r.videos.CountDocuments(ctx, bson.M{"category_id": categoryID})
}

func (r *CatalogRepo) InsertVideo(ctx context.Context, v *media.Video) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := r.videos.InsertOne(ctx, v)
	return err
}

func (r *CatalogRepo) GetVideo(ctx context.Context, id string) (*media.Video, error) {
	var v media.Video
	err := r.videos.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &utils.NotFoundError{Resource: "video", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *CatalogRepo) ListVideosByCategory(ctx context.Context, categoryID string, page, pageSize int) ([]media.Video, int64, error) {
	total, err := r.videos.CountDocuments(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	cur, err := r.videos.Find(ctx, bson.M{"category_id": categoryID}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []media.Video
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *CatalogRepo) DeleteVideo(ctx context.Context, id string) error {
	res, err := r.videos.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return &utils.NotFoundError{Resource: "video", ID: id}
	}
	return nil
}
