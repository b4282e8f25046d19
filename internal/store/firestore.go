package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
)

const (
	rootCollection   = "locations"
	placesCollection = "mostVisitedPlaces"
	trailCollection  = "locationData"
)

// Firestore stores places under locations/{uid}/mostVisitedPlaces and
// the trail under locations/{uid}/locationData.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) placesRef(userID string) *firestore.CollectionRef {
	return s.client.Collection(rootCollection).Doc(userID).Collection(placesCollection)
}

func (s *Firestore) trailRef(userID string) *firestore.CollectionRef {
	return s.client.Collection(rootCollection).Doc(userID).Collection(trailCollection)
}

func (s *Firestore) Places(ctx context.Context, userID string) ([]place.Record, error) {
	docs, err := s.placesRef(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(docs, func(a, b *firestore.DocumentSnapshot) int {
		return strings.Compare(a.Ref.ID, b.Ref.ID)
	})

	records := make([]place.Record, 0, len(docs))
	for _, doc := range docs {
		var r place.Record
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decode place %s: %w", doc.Ref.ID, err)
		}
		records = append(records, r)
	}
	return keepValid(userID, place.EnsureType(records)), nil
}

func (s *Firestore) ReplacePlaces(ctx context.Context, userID string, records []place.Record) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	if err := s.DeletePlaces(ctx, userID); err != nil {
		return err
	}

	ref := s.placesRef(userID)
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for i, r := range records {
		job, err := bw.Set(ref.Doc(placeDocID(i, len(records))), r)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}
	bw.End()
	return jobErrors(jobs)
}

func (s *Firestore) DeletePlaces(ctx context.Context, userID string) error {
	return s.deleteAll(ctx, s.placesRef(userID))
}

func (s *Firestore) AddFix(ctx context.Context, userID string, f fix.Fix) error {
	_, _, err := s.trailRef(userID).Add(ctx, f)
	return err
}

func (s *Firestore) Trail(ctx context.Context, userID string) ([]fix.Fix, error) {
	docs, err := s.trailRef(userID).OrderBy("timestamp", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	trail := make([]fix.Fix, 0, len(docs))
	for _, doc := range docs {
		var f fix.Fix
		if err := doc.DataTo(&f); err != nil {
			return nil, fmt.Errorf("decode fix %s: %w", doc.Ref.ID, err)
		}
		trail = append(trail, f)
	}
	return trail, nil
}

func (s *Firestore) DeleteTrail(ctx context.Context, userID string) error {
	return s.deleteAll(ctx, s.trailRef(userID))
}

func (s *Firestore) deleteAll(ctx context.Context, ref *firestore.CollectionRef) error {
	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	iter := ref.DocumentRefs(ctx)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			bw.End()
			return err
		}
		job, err := bw.Delete(doc)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}
	bw.End()
	return jobErrors(jobs)
}

func jobErrors(jobs []*firestore.BulkWriterJob) error {
	var errs []error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// placeDocID keeps documents in rank order when listed by ID. Every ID of a
// collection of size n is zero-padded to the same width.
func placeDocID(rank, n int) string {
	width := max(2, len(strconv.Itoa(n-1)))
	return fmt.Sprintf("%0*d", width, rank)
}
