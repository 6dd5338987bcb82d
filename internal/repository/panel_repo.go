package repository

import (
	"context"
	"regexp"

	"voicepanels/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type panelRepo struct {
	panels     *mongo.Collection
	interviews *mongo.Collection
}

// NewPanelRepo creates the MongoDB panel and interview store
func NewPanelRepo(db *mongo.Database) PanelStore {
	repo := &panelRepo{
		panels:     db.Collection("panels"),
		interviews: db.Collection("interviews"),
	}

	ctx := context.Background()
	createIndex(ctx, repo.panels, bson.D{{Key: "created_at", Value: 1}}, false)
	createIndex(ctx, repo.interviews, bson.D{{Key: "panel_id", Value: 1}}, false)

	return repo
}

func (r *panelRepo) CreatePanel(ctx context.Context, panel *model.Panel) error {
	_, err := r.panels.InsertOne(ctx, panel)
	return err
}

func (r *panelRepo) GetPanel(ctx context.Context, id string) (*model.Panel, error) {
	var panel model.Panel
	err := r.panels.FindOne(ctx, bson.M{"_id": id}).Decode(&panel)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &panel, nil
}

func (r *panelRepo) ListPanels(ctx context.Context) ([]model.Panel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.panels.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	panels := []model.Panel{}
	if err := cursor.All(ctx, &panels); err != nil {
		return nil, err
	}
	return panels, nil
}

func (r *panelRepo) FindPanelByName(ctx context.Context, name string) (*model.Panel, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var panel model.Panel
	err := r.panels.FindOne(ctx, filter, opts).Decode(&panel)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &panel, nil
}

// UpsertInterview refreshes participant details but keeps the panel and
// created_at of an existing interview.
func (r *panelRepo) UpsertInterview(ctx context.Context, interview *model.Interview) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.interviews.UpdateOne(ctx, bson.M{"_id": interview.ID}, interviewUpdate(interview), opts)
	return err
}

func interviewUpdate(iv *model.Interview) bson.M {
	return bson.M{
		"$set": bson.M{
			"participant_name":    iv.ParticipantName,
			"participant_company": iv.ParticipantCompany,
			"completed_at":        iv.CompletedAt,
		},
		"$setOnInsert": bson.M{
			"panel_id":   iv.PanelID,
			"created_at": iv.CreatedAt,
		},
	}
}

func (r *panelRepo) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	var interview model.Interview
	err := r.interviews.FindOne(ctx, bson.M{"_id": id}).Decode(&interview)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &interview, nil
}
