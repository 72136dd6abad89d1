package provenance_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"freightledger/internal/provenance"
	id "freightledger/pkg/domain"
	dErrors "freightledger/pkg/domain-errors"
)

type SealSuite struct {
	suite.Suite
}

func TestSealSuite(t *testing.T) {
	suite.Run(t, new(SealSuite))
}

func (s *SealSuite) TestSealRoundTrip() {
	public, private, err := provenance.SealScheme.GenerateKeyPair()
	s.Require().NoError(err)

	sealer, err := provenance.NewSealer(public)
	s.Require().NoError(err)

	s.Run("seal opens against its own order", func() {
		seal, err := sealer.Seal(id.OrderID("ord-1"))
		s.Require().NoError(err)
		s.NotEmpty(seal.Ciphertext)

		s.NoError(provenance.OpenSeal(private, seal, id.OrderID("ord-1")))
	})

	s.Run("seal does not bind to a different order", func() {
		seal, err := sealer.Seal(id.OrderID("ord-1"))
		s.Require().NoError(err)

		err = provenance.OpenSeal(private, seal, id.OrderID("ord-2"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeVerificationFailed))
	})

	s.Run("two seals for the same order are distinct artifacts", func() {
		first, err := sealer.Seal(id.OrderID("ord-1"))
		s.Require().NoError(err)
		second, err := sealer.Seal(id.OrderID("ord-1"))
		s.Require().NoError(err)

		s.NotEqual(first.Ciphertext, second.Ciphertext)
	})
}

func (s *SealSuite) TestSealerFromBytes() {
	s.Run("marshalled key round-trips", func() {
		public, private, err := provenance.SealScheme.GenerateKeyPair()
		s.Require().NoError(err)
		raw, err := public.MarshalBinary()
		s.Require().NoError(err)

		sealer, err := provenance.NewSealerFromBytes(raw)
		s.Require().NoError(err)

		seal, err := sealer.Seal(id.OrderID("ord-1"))
		s.Require().NoError(err)
		s.NoError(provenance.OpenSeal(private, seal, id.OrderID("ord-1")))
	})

	s.Run("malformed key is rejected", func() {
		_, err := provenance.NewSealerFromBytes([]byte("not a key"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
