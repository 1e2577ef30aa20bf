// Package ratelimit fornece o adapter HTTP (net/http) do guarda de requisições:
// bloqueia clientes que passam de MaxRequests dentro da janela e mantém o
// bloqueio pela mesma duração da janela.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão, registro, vagas em voo) sem net/http
//   - infra: log da janela, lista de bloqueios, janitor, stats
//   - ratelimit (este pacote): identificação do cliente, Guard/middleware,
//     tradução para status/headers
//
// Fluxo por requisição:
//
//  1. Extrai a chave do cliente (primeiro IP do X-Forwarded-For ou RemoteAddr)
//  2. Cliente bloqueado: 403, o próximo handler não roda
//  3. Passou do limite: bloqueia e responde 403
//  4. Caso contrário chama o próximo handler e, quando ele retorna, registra a requisição
//
// O estado é local ao processo. Com N instâncias atrás de um balanceador o
// limite efetivo é N vezes o configurado.
package ratelimit
