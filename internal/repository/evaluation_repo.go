package repository

import (
	"context"
	"strconv"
	"strings"

	"voicepanels/internal/model"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type evaluationRepo struct {
	evaluations *mongo.Collection
}

// NewEvaluationRepo creates the MongoDB evaluation store with its indexes
func NewEvaluationRepo(db *mongo.Database) EvaluationStore {
	repo := &evaluationRepo{
		evaluations: db.Collection("evaluations"),
	}

	repo.ensureIndexes(context.Background())

	return repo
}

func (r *evaluationRepo) ensureIndexes(ctx context.Context) {
	createIndex(ctx, r.evaluations, bson.D{{Key: "interview_id", Value: 1}}, true)
	createIndex(ctx, r.evaluations, bson.D{
		{Key: "panel_id", Value: 1},
		{Key: "created_at", Value: -1},
	}, false)
	createIndex(ctx, r.evaluations, bson.D{
		{Key: "sentiment", Value: 1},
		{Key: "created_at", Value: -1},
	}, false)
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		logrus.WithError(err).WithField("collection", coll.Name()).Warn("failed to create index")
	}
}

func (r *evaluationRepo) InsertEvaluation(ctx context.Context, ev *model.RawEvaluation) (bool, error) {
	doc := storable(ev)
	opts := options.Update().SetUpsert(true)
	res, err := r.evaluations.UpdateOne(ctx,
		bson.M{"interview_id": ev.InterviewID},
		bson.M{"$setOnInsert": doc},
		opts,
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *evaluationRepo) ListEvaluations(ctx context.Context, q EvaluationQuery) ([]model.RawEvaluation, error) {
	cursor, err := r.evaluations.Aggregate(ctx, evaluationPipeline(q))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []model.RawEvaluation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		plainLists(&out[i])
	}
	return out, nil
}

// evaluationPipeline filters, orders and caps before joining so the
// lookups only run for records that are returned.
func evaluationPipeline(q EvaluationQuery) mongo.Pipeline {
	match := bson.D{}
	if q.InterviewID != "" {
		match = append(match, bson.E{Key: "interview_id", Value: q.InterviewID})
	}
	if q.PanelID != "" {
		match = append(match, bson.E{Key: "panel_id", Value: q.PanelID})
	}
	if s := strings.ToLower(strings.TrimSpace(q.Sentiment)); s != "" {
		match = append(match, bson.E{Key: "sentiment", Value: s})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	}

	return append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "interviews"},
			{Key: "localField", Value: "interview_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "interview"},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "panels"},
			{Key: "localField", Value: "panel_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "panel"},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "panel_name", Value: bson.M{"$first": "$panel.name"}},
			{Key: "participant_name", Value: bson.M{"$first": "$interview.participant_name"}},
			{Key: "participant_company", Value: bson.M{"$first": "$interview.participant_company"}},
			{Key: "completed_at", Value: bson.M{"$first": "$interview.completed_at"}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "interview", Value: 0},
			{Key: "panel", Value: 0},
		}}},
	)
}

// plainLists turns the driver's document types inside loosely typed fields
// into plain maps and slices.
func plainLists(ev *model.RawEvaluation) {
	ev.SentimentScore = plainValue(ev.SentimentScore)
	ev.QualityScore = plainValue(ev.QualityScore)
	ev.Topics = plainSlice(ev.Topics)
	ev.PainPoints = plainSlice(ev.PainPoints)
	ev.Desires = plainSlice(ev.Desires)
	ev.KeyQuotes = plainSlice(ev.KeyQuotes)
}

func plainSlice(items []any) []any {
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = plainValue(item)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plainValue(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plainValue(val)
		}
		return m
	case primitive.A:
		return plainSlice([]any(t))
	case []any:
		return plainSlice(t)
	case primitive.Decimal128:
		if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return f
		}
		return nil
	}
	return v
}
