package typeddata

import (
	"fmt"

	"perpsign/felt"
	"perpsign/shared"
)

// DomainType is the encoded revision 1 StarknetDomain type.
const DomainType = `"StarknetDomain"("name":"shortstring","version":"shortstring","chainId":"shortstring","revision":"shortstring")`

var DomainTypeHash = Selector(DomainType)

// StarknetDomain separates signatures across applications and chains.
type StarknetDomain struct {
	Name     string
	Version  string
	ChainID  string
	Revision uint32
}

// PerpetualsDomain returns the perpetuals protocol domain on chainID.
func PerpetualsDomain(chainID string) StarknetDomain {
	return StarknetDomain{
		Name:     shared.DomainName,
		Version:  shared.DomainVersion,
		ChainID:  chainID,
		Revision: shared.DomainRevision,
	}
}

func (d StarknetDomain) TypeHash() felt.Felt {
	return DomainTypeHash
}

func (d StarknetDomain) Elements() ([]felt.Felt, error) {
	name, err := felt.FromShortString(d.Name)
	if err != nil {
		return nil, fmt.Errorf("domain name: %w", err)
	}
	version, err := felt.FromShortString(d.Version)
	if err != nil {
		return nil, fmt.Errorf("domain version: %w", err)
	}
	chainID, err := felt.FromShortString(d.ChainID)
	if err != nil {
		return nil, fmt.Errorf("domain chain id: %w", err)
	}
	return []felt.Felt{name, version, chainID, felt.FromUint64(uint64(d.Revision))}, nil
}
