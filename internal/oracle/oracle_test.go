package oracle_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/dwarvesf/drain-watcher/internal/model"
	"github.com/dwarvesf/drain-watcher/internal/oracle"
	"github.com/dwarvesf/drain-watcher/internal/types/environments"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

type MockExplorer struct {
	mock.Mock
}

func (m *MockExplorer) GetTransactionsByAddress(ctx context.Context, address string) ([]model.RawTransaction, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawTransaction), args.Error(1)
}

func (m *MockExplorer) CountTransactions(ctx context.Context, address string, limit int) (int, error) {
	args := m.Called(address, limit)
	return args.Int(0), args.Error(1)
}

type MockBaseRPC struct {
	mock.Mock
}

func (m *MockBaseRPC) NonceAt(ctx context.Context, address string) (uint64, error) {
	args := m.Called(address)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockBaseRPC) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called()
	return args.Get(0).(uint64), args.Error(1)
}

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) HasPriorActivity(ctx context.Context, address string) (bool, error) {
	args := m.Called(address)
	return args.Bool(0), args.Error(1)
}

var _ = Describe("ExplorerOracle", func() {
	var (
		explorer *MockExplorer
		o        *oracle.ExplorerOracle
		ctx      context.Context
	)

	BeforeEach(func() {
		explorer = &MockExplorer{}
		o = oracle.NewExplorerOracle(explorer, logger.New(environments.Test))
		ctx = context.Background()
	})

	DescribeTable("threshold of more than one indexed transaction",
		func(count int, expected bool) {
			explorer.On("CountTransactions", "0xdef", 2).Return(count, nil)

			prior, err := o.HasPriorActivity(ctx, "0xdef")
			Expect(err).NotTo(HaveOccurred())
			Expect(prior).To(Equal(expected))
		},
		Entry("never seen", 0, false),
		Entry("only the drain itself", 1, false),
		Entry("history exists", 2, true),
	)

	It("should propagate explorer failures instead of guessing", func() {
		explorer.On("CountTransactions", "0xbbb", 2).Return(0, errors.New("connection reset"))

		prior, err := o.HasPriorActivity(ctx, "0xbbb")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("0xbbb"))
		Expect(prior).To(BeFalse())
	})
})

var _ = Describe("NonceOracle", func() {
	var (
		rpc  *MockBaseRPC
		next *MockOracle
		o    *oracle.NonceOracle
		ctx  context.Context
	)

	BeforeEach(func() {
		rpc = &MockBaseRPC{}
		next = &MockOracle{}
		o = oracle.NewNonceOracle(rpc, next, logger.New(environments.Test))
		ctx = context.Background()
	})

	It("should answer from the nonce when it proves activity", func() {
		rpc.On("NonceAt", "0xdef").Return(uint64(5), nil)

		prior, err := o.HasPriorActivity(ctx, "0xdef")
		Expect(err).NotTo(HaveOccurred())
		Expect(prior).To(BeTrue())
		next.AssertNotCalled(GinkgoT(), "HasPriorActivity", mock.Anything)
	})

	It("should defer to the next oracle for low nonces", func() {
		rpc.On("NonceAt", "0xdef").Return(uint64(1), nil)
		next.On("HasPriorActivity", "0xdef").Return(false, nil)

		prior, err := o.HasPriorActivity(ctx, "0xdef")
		Expect(err).NotTo(HaveOccurred())
		Expect(prior).To(BeFalse())
		next.AssertNumberOfCalls(GinkgoT(), "HasPriorActivity", 1)
	})

	It("should fall back when the node fails", func() {
		rpc.On("NonceAt", "0xdef").Return(uint64(0), errors.New("node down"))
		next.On("HasPriorActivity", "0xdef").Return(true, nil)

		prior, err := o.HasPriorActivity(ctx, "0xdef")
		Expect(err).NotTo(HaveOccurred())
		Expect(prior).To(BeTrue())
	})

	It("should surface errors of the next oracle", func() {
		rpc.On("NonceAt", "0xdef").Return(uint64(0), nil)
		next.On("HasPriorActivity", "0xdef").Return(false, errors.New("explorer down"))

		_, err := o.HasPriorActivity(ctx, "0xdef")
		Expect(err).To(MatchError("explorer down"))
	})
})

var _ = Describe("CachedOracle", func() {
	var (
		wrapped *MockOracle
		ctx     context.Context
	)

	BeforeEach(func() {
		wrapped = &MockOracle{}
		ctx = context.Background()
	})

	It("should serve repeated lookups from cache regardless of case", func() {
		wrapped.On("HasPriorActivity", "0xDEF").Return(true, nil).Once()
		o := oracle.NewCachedOracle(wrapped, time.Minute)

		for _, addr := range []string{"0xDEF", "0xdef", "0xDeF"} {
			prior, err := o.HasPriorActivity(ctx, addr)
			Expect(err).NotTo(HaveOccurred())
			Expect(prior).To(BeTrue())
		}

		wrapped.AssertNumberOfCalls(GinkgoT(), "HasPriorActivity", 1)
		Expect(o.Statistics()).To(Equal(oracle.CacheStatistics{Hits: 2, Misses: 1}))
	})

	It("should not cache failures", func() {
		wrapped.On("HasPriorActivity", "0xbbb").Return(false, errors.New("timeout")).Once()
		wrapped.On("HasPriorActivity", "0xbbb").Return(false, nil).Once()
		o := oracle.NewCachedOracle(wrapped, time.Minute)

		_, err := o.HasPriorActivity(ctx, "0xbbb")
		Expect(err).To(HaveOccurred())

		prior, err := o.HasPriorActivity(ctx, "0xbbb")
		Expect(err).NotTo(HaveOccurred())
		Expect(prior).To(BeFalse())
	})

	It("should ask again after the entry expires", func() {
		wrapped.On("HasPriorActivity", "0xdef").Return(false, nil)
		o := oracle.NewCachedOracle(wrapped, 20*time.Millisecond)

		_, _ = o.HasPriorActivity(ctx, "0xdef")
		Eventually(func() int {
			_, _ = o.HasPriorActivity(ctx, "0xdef")
			return len(wrapped.Calls)
		}, time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 2))
	})
})

var _ = Describe("Func", func() {
	It("should adapt a function", func() {
		var o oracle.IActivityOracle = oracle.Func(func(_ context.Context, address string) (bool, error) {
			return address == "0xold", nil
		})

		prior, err := o.HasPriorActivity(context.Background(), "0xold")
		Expect(err).NotTo(HaveOccurred())
		Expect(prior).To(BeTrue())
	})
})
