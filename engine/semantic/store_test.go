package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// --- Fake qdrant clients ---

type fakePoints struct {
	upsertReq *pb.UpsertPoints
	upsertErr error

	searchReq  *pb.SearchPoints
	searchResp *pb.SearchResponse
	searchErr  error

	countResp *pb.CountResponse
	countErr  error
}

func (f *fakePoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.upsertReq = in
	return &pb.PointsOperationResponse{}, f.upsertErr
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.searchReq = in
	return f.searchResp, f.searchErr
}

func (f *fakePoints) Count(_ context.Context, _ *pb.CountPoints, _ ...grpc.CallOption) (*pb.CountResponse, error) {
	return f.countResp, f.countErr
}

type fakeCollections struct {
	names     []string
	createReq *pb.CreateCollection
	deleteReq *pb.DeleteCollection
	listErr   error
}

func (f *fakeCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	cols := make([]*pb.CollectionDescription, len(f.names))
	for i, n := range f.names {
		cols[i] = &pb.CollectionDescription{Name: n}
	}
	return &pb.ListCollectionsResponse{Collections: cols}, nil
}

func (f *fakeCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.createReq = in
	return &pb.CollectionOperationResponse{}, nil
}

func (f *fakeCollections) Delete(_ context.Context, in *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.deleteReq = in
	return &pb.CollectionOperationResponse{}, nil
}

func newTestStore(p *fakePoints, c *fakeCollections) *VectorStore {
	return NewWithClients(p, c, "codes")
}

// --- Tests ---

func TestEnsureCollection_CreatesWithEuclid(t *testing.T) {
	cols := &fakeCollections{}
	vs := newTestStore(&fakePoints{}, cols)

	if err := vs.EnsureCollection(context.Background(), 768); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if cols.createReq == nil {
		t.Fatal("expected a create call")
	}
	params := cols.createReq.GetVectorsConfig().GetParams()
	if params.GetSize() != 768 {
		t.Errorf("dims = %d, want 768", params.GetSize())
	}
	if params.GetDistance() != pb.Distance_Euclid {
		t.Errorf("distance = %v, want Euclid", params.GetDistance())
	}
}

func TestEnsureCollection_SkipsExisting(t *testing.T) {
	cols := &fakeCollections{names: []string{"codes"}}
	vs := newTestStore(&fakePoints{}, cols)

	if err := vs.EnsureCollection(context.Background(), 768); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if cols.createReq != nil {
		t.Fatal("existing collection must not be recreated")
	}
}

func TestDeleteCollection(t *testing.T) {
	cols := &fakeCollections{}
	vs := newTestStore(&fakePoints{}, cols)

	if err := vs.DeleteCollection(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cols.deleteReq.GetCollectionName() != "codes" {
		t.Errorf("deleted %q", cols.deleteReq.GetCollectionName())
	}
}

func TestCount(t *testing.T) {
	pts := &fakePoints{countResp: &pb.CountResponse{Result: &pb.CountResult{Count: 44}}}
	vs := newTestStore(pts, &fakeCollections{})

	n, err := vs.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 44 {
		t.Errorf("count = %d, want 44", n)
	}
}

func TestUpsert_ConvertsRecords(t *testing.T) {
	pts := &fakePoints{}
	vs := newTestStore(pts, &fakeCollections{})

	err := vs.Upsert(context.Background(), []VectorRecord{
		{
			ID:        "11111111-1111-1111-1111-111111111111",
			Embedding: []float32{0.1, 0.2},
			Payload:   map[string]any{"icd_code": "G430", "order_number": "7"},
		},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if pts.upsertReq.GetCollectionName() != "codes" {
		t.Errorf("collection %q", pts.upsertReq.GetCollectionName())
	}
	if !pts.upsertReq.GetWait() {
		t.Error("upsert must wait for durability")
	}
	p := pts.upsertReq.GetPoints()[0]
	if p.GetId().GetUuid() != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("point id %q", p.GetId().GetUuid())
	}
	if got := p.GetPayload()["icd_code"].GetStringValue(); got != "G430" {
		t.Errorf("payload icd_code = %q", got)
	}
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	pts := &fakePoints{}
	vs := newTestStore(pts, &fakeCollections{})
	if err := vs.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert: %v", err)
	}
	if pts.upsertReq != nil {
		t.Fatal("no request expected for empty batch")
	}
}

func TestSearch_MapsPayload(t *testing.T) {
	pts := &fakePoints{searchResp: &pb.SearchResponse{Result: []*pb.ScoredPoint{
		{
			Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "abc"}},
			Score: 0.42,
			Payload: map[string]*pb.Value{
				"content":           {Kind: &pb.Value_StringValue{StringValue: "Migraine without aura"}},
				"icd_code":          {Kind: &pb.Value_StringValue{StringValue: "G430"}},
				"short_description": {Kind: &pb.Value_StringValue{StringValue: "Migraine w/o aura"}},
				"order_number":      {Kind: &pb.Value_StringValue{StringValue: "1"}},
			},
		},
	}}}
	vs := newTestStore(pts, &fakeCollections{})

	got, err := vs.Search(context.Background(), []float32{0.1}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(got))
	}
	h := got[0]
	if h.Code != "G430" || h.ShortDescription != "Migraine w/o aura" || h.Content != "Migraine without aura" {
		t.Errorf("mapped hit: %+v", h)
	}
	if h.Score != 0.42 {
		t.Errorf("score = %v", h.Score)
	}
	if h.Meta["order_number"] != "1" {
		t.Errorf("meta: %v", h.Meta)
	}
	if pts.searchReq.GetLimit() != 1 {
		t.Errorf("limit = %d", pts.searchReq.GetLimit())
	}
	if !pts.searchReq.GetWithPayload().GetEnable() {
		t.Error("payload must be requested")
	}
}

func TestSearch_Error(t *testing.T) {
	pts := &fakePoints{searchErr: errors.New("unavailable")}
	vs := newTestStore(pts, &fakeCollections{})
	if _, err := vs.Search(context.Background(), []float32{0.1}, 1); err == nil {
		t.Fatal("expected error")
	}
}
