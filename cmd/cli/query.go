package cli

import (
	"strconv"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "query the pool node rpc",
}

var (
	poolName, limit = "", 0
)

func init() {
	poolCmd.Flags().StringVar(&poolName, "name", "", "select the pool by name instead of address")
	outboxCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of follow-ups to list, 0 is all")
	queryCmd.AddCommand(poolCmd)
	queryCmd.AddCommand(poolsCmd)
	queryCmd.AddCommand(providerCmd)
	queryCmd.AddCommand(depositReceiptCmd)
	queryCmd.AddCommand(withdrawReceiptCmd)
	queryCmd.AddCommand(delegationCmd)
	queryCmd.AddCommand(balanceCmd)
	queryCmd.AddCommand(outboxCmd)
	queryCmd.AddCommand(quoteDepositCmd)
	queryCmd.AddCommand(quoteWithdrawCmd)
}

var (
	poolCmd = &cobra.Command{
		Use:   "pool <address> or pool --name=sol-usdc",
		Short: "query a pool in the context that currently owns it",
		Run: func(cmd *cobra.Command, args []string) {
			if poolName != "" {
				writeToConsole(client.PoolByName(poolName))
				return
			}
			if len(args) == 0 {
				l.Fatal("pool requires an address or --name")
			}
			writeToConsole(client.Pool(argToKey(args[0])))
		},
	}

	poolsCmd = &cobra.Command{
		Use:   "pools",
		Short: "query all pools as committed to the base context",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Pools())
		},
	}

	providerCmd = &cobra.Command{
		Use:   "provider <owner>",
		Short: "query the position record of a liquidity provider",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Provider(argToKey(args[0])))
		},
	}

	depositReceiptCmd = &cobra.Command{
		Use:   "deposit-receipt <owner>",
		Short: "query the in flight deposit receipt of an owner",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.DepositReceipt(argToKey(args[0])))
		},
	}

	withdrawReceiptCmd = &cobra.Command{
		Use:   "withdraw-receipt <owner>",
		Short: "query the in flight withdraw receipt of an owner",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.WithdrawReceipt(argToKey(args[0])))
		},
	}

	delegationCmd = &cobra.Command{
		Use:   "delegation <account>",
		Short: "query the delegation record of an account",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Delegation(argToKey(args[0])))
		},
	}

	balanceCmd = &cobra.Command{
		Use:   "balance <owner> <mint>",
		Short: "query the token balance of an owner",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			balance, err := client.Balance(argToKey(args[0]), argToKey(args[1]))
			if err != nil {
				writeToConsole(nil, err)
			}
			writeToConsole(balance.Amount, nil)
		},
	}

	outboxCmd = &cobra.Command{
		Use:   "outbox --limit=10",
		Short: "query the follow-ups waiting for delivery",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Outbox(limit))
		},
	}

	quoteDepositCmd = &cobra.Command{
		Use:   "quote-deposit <pool> <amount_a> <amount_b>",
		Short: "quote the lp tokens a deposit would mint",
		Args:  cobra.MinimumNArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.QuoteDeposit(argToKey(args[0]), argToAmount(args[1]), argToAmount(args[2])))
		},
	}

	quoteWithdrawCmd = &cobra.Command{
		Use:   "quote-withdraw <pool> <lp_tokens>",
		Short: "quote the amounts burning lp tokens would pay out",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.QuoteWithdraw(argToKey(args[0]), argToAmount(args[1])))
		},
	}
)

func argToKey(arg string) solana.PublicKey {
	key, err := lib.PublicKeyFromString(arg)
	if err != nil {
		l.Fatal(err.Error())
	}
	return key
}

func argToAmount(arg string) uint64 {
	i, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		l.Fatal(err.Error())
	}
	return i
}
