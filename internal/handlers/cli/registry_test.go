package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/gabapcia/walletpulse/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type registryServiceMock struct {
	mock.Mock
}

func (m *registryServiceMock) Watch(ctx context.Context, addr registry.MonitoredAddress) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *registryServiceMock) Unwatch(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *registryServiceMock) List(ctx context.Context) ([]registry.MonitoredAddress, error) {
	args := m.Called(ctx)
	if addrs := args.Get(0); addrs != nil {
		return addrs.([]registry.MonitoredAddress), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestWatchAddressCommand(t *testing.T) {
	t.Run("registers the address with its metadata", func(t *testing.T) {
		reg := new(registryServiceMock)
		reg.On("Watch", mock.Anything, registry.MonitoredAddress{
			Address:       "W",
			DisplayName:   "treasury",
			Icon:          "bank",
			DeliverToFeed: true,
		}).Return(nil).Once()

		cmd := watchAddressCommand(reg)
		err := cmd.Run(t.Context(), []string{"watch", "--address", "W", "--name", "treasury", "--icon", "bank"})

		require.NoError(t, err)
		reg.AssertExpectations(t)
	})

	t.Run("mute flag disables feed delivery", func(t *testing.T) {
		reg := new(registryServiceMock)
		reg.On("Watch", mock.Anything, registry.MonitoredAddress{
			Address:       "W",
			DeliverToFeed: false,
		}).Return(nil).Once()

		cmd := watchAddressCommand(reg)
		err := cmd.Run(t.Context(), []string{"watch", "--address", "W", "--mute"})

		require.NoError(t, err)
		reg.AssertExpectations(t)
	})
}

func TestUnwatchAddressCommand(t *testing.T) {
	reg := new(registryServiceMock)
	reg.On("Unwatch", mock.Anything, "W").Return(nil).Once()

	cmd := unwatchAddressCommand(reg)
	err := cmd.Run(t.Context(), []string{"unwatch", "--address", "W"})

	require.NoError(t, err)
	reg.AssertExpectations(t)
}

func TestListAddressesCommand(t *testing.T) {
	reg := new(registryServiceMock)
	reg.On("List", mock.Anything).Return([]registry.MonitoredAddress{
		{Address: "A", DisplayName: "treasury", DeliverToFeed: true},
		{Address: "B"},
	}, nil).Once()

	var out bytes.Buffer
	cmd := listAddressesCommand(reg)
	cmd.Writer = &out

	require.NoError(t, cmd.Run(t.Context(), []string{"list"}))

	assert.Contains(t, out.String(), "A\ttreasury\tfeed")
	assert.Contains(t, out.String(), "B\t\tmuted")
}
