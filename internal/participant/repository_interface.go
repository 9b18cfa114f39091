package participant

import "context"

type Repository interface {
	Create(ctx context.Context, p *Participant) (*Participant, error)
	Get(ctx context.Context, id int) (*Participant, error)
	GetForUpdate(ctx context.Context, id int) (*Participant, error)
	UpdatePayment(ctx context.Context, p *Participant) (*Participant, error)
	UpdateParticipation(ctx context.Context, id int, status ParticipationStatus) (*Participant, error)
	ListByBooking(ctx context.Context, bookingID int) ([]Participant, error)
	Stats(ctx context.Context, bookingID int) (*PaymentStats, error)
	IsHost(ctx context.Context, bookingID, userID int) (bool, error)
	IsParticipant(ctx context.Context, bookingID, userID int) (bool, error)
	CountHosts(ctx context.Context, bookingID int) (int, error)
	Delete(ctx context.Context, id int) error
}
